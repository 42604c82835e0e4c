package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/ircchat/viewers"
)

var viewersCmd = &cobra.Command{
	Use:   "viewers <channel>",
	Short: "List the chatters in a channel by group",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewers,
}

func runViewers(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	type result struct {
		ok   bool
		list *viewers.List
	}
	done := make(chan result, 1)
	svc.Channel(args[0]).RequestViewerList(func(ok bool, list *viewers.List) {
		done <- result{ok, list}
	})

	r := <-done
	if !r.ok {
		return fmt.Errorf("viewer list for %s is unavailable", args[0])
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d chatters\n", r.list.Total())
	for _, g := range r.list.Groups() {
		names := r.list.Viewers(g)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d): %s\n", g, len(names), strings.Join(names, " "))
	}
	return nil
}
