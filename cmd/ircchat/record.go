package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/ircchat"
	"github.com/Travis-Britz/ircchat/archive"
)

var historyLimit int

var recordCmd = &cobra.Command{
	Use:   "record <channel>",
	Short: "Archive a channel's chat to the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

var historyCmd = &cobra.Command{
	Use:   "history <channel>",
	Short: "Print the newest archived messages of a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "number of messages")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, err := archive.Open(ctx, cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	c := svc.Channel(args[0])
	c.OnMessage(func(m *ircchat.ChatMessage) {
		// inserts run on the receive goroutine; keep them short
		ictx, icancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer icancel()
		if _, err := store.Insert(ictx, c.Name(), m); err != nil {
			logger.Error().Err(err).Msg("failed to insert chat message")
		}
	})
	if err := joinChannel(ctx, c); err != nil {
		return err
	}
	logger.Info().Str("channel", c.Name()).Str("archive", cfg.ArchivePath).Msg("recording")

	<-ctx.Done()
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := archive.Open(ctx, cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Recent(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", r.Timestamp.Local().Format(time.DateTime), r.Username, r.Message)
	}
	return nil
}
