package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/ircchat/poll"
)

var (
	pollDuration time.Duration
	pollOnce     bool
	pollAnnounce bool
)

var pollCmd = &cobra.Command{
	Use:   "poll <channel> <option> <option>...",
	Short: "Run a vote in a channel",
	Long: `Joins the channel and counts chat messages that exactly match one of the options.
The poll ends after --duration, or on interrupt, and prints the results.
With --announce the start and the results are posted to the channel, which needs a logged in nickname.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().DurationVarP(&pollDuration, "duration", "d", time.Minute, "voting time limit")
	pollCmd.Flags().BoolVar(&pollOnce, "once", true, "count one vote per chatter")
	pollCmd.Flags().BoolVar(&pollAnnounce, "announce", false, "announce the poll and its results in chat")
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	c := svc.Channel(args[0])
	p := poll.New(c)
	p.Logger = *logger
	p.TimeLimit = pollDuration
	p.OneVotePerUser = pollOnce
	if pollAnnounce {
		p.StartMessage = "Poll started! You have {time} seconds to vote: {options}"
		p.EndMessage = "Poll finished with {totalVotes} votes: {results}"
	}
	for _, o := range args[1:] {
		if err := p.AddOption(o); err != nil {
			return fmt.Errorf("option %q: %w", o, err)
		}
	}

	finished := make(chan poll.Results, 1)
	p.OnFinish(func(r poll.Results) { finished <- r })
	p.OnProgress(func(r poll.Results) {
		logger.Debug().Int("votes", r.Total).Msg("vote counted")
	})

	if err := joinChannel(ctx, c); err != nil {
		return err
	}
	if err := p.Start(); err != nil {
		return err
	}

	var res poll.Results
	select {
	case res = <-finished:
	case <-ctx.Done():
		res = p.Stop()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d votes: %s\n", res.Total, res)
	return nil
}
