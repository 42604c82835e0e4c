package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/ircchat"
)

var (
	watchWhispers bool
	watchFilter   string
)

var watchCmd = &cobra.Command{
	Use:   "watch <channel>...",
	Short: "Print chat from one or more channels",
	Long: `Joins every channel given and prints their chat, notices, and deletions
with colored names and badges until interrupted. Channels share connections.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchWhispers, "whispers", false, "also print whispers (requires a logged in nickname)")
	watchCmd.Flags().StringVar(&watchFilter, "filter", "*", "only print messages whose text matches this wildcard (* any text, ? one character, & one word)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	show := ircchat.TextFilter(watchFilter)
	for _, name := range args {
		c := svc.Channel(name)
		name := c.Name()
		c.OnMessage(func(m *ircchat.ChatMessage) {
			if show(m.Text()) {
				fmt.Fprintln(out, render(name, m))
			}
		})
		c.OnNotice(func(m *ircchat.ChatMessage) {
			fmt.Fprintln(out, render(name, m))
		})
		c.OnMessagesDeleted(func(ids []string) {
			text := "chat was cleared"
			if len(ids) > 0 {
				text = "messages removed: " + strings.Join(ids, ", ")
			}
			fmt.Fprintln(out, render(name, svc.Announcement(name, text)))
		})
		c.OnLeave(func(r ircchat.LeaveReason) {
			logger.Info().Str("channel", name).Stringer("reason", r).Msg("left channel")
		})
		c.Join()
	}

	if watchWhispers {
		w := svc.Whispers()
		w.OnMessage(func(m *ircchat.ChatMessage) {
			if show(m.Text()) {
				fmt.Fprintln(out, render("whisper", m))
			}
		})
		w.Join()
	}

	<-ctx.Done()
	return nil
}
