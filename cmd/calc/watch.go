package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Follow the display as it changes",
		GroupID: gBasic,
		Long:    `Print the display every time it changes, whoever pressed the keys. Stop with Ctrl-C.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ch, err := apiClient.SubscribeEvents(ctx)
			if err != nil {
				return err
			}

			last := ""
			for ev := range ch {
				switch ev.Name {
				case events.DisplayUpdate:
					st, err := events.DecodeAs[engine.State](ev)
					if err != nil {
						logrus.Warnf("ignoring malformed %s event: %v", ev.Name, err)
						continue
					}
					line := renderDisplay(&st)
					if line == last {
						continue
					}
					last = line
					cmd.Println(line)
				default:
					if verbose {
						cmd.Printf("  %s %s\n", ev.Name, string(ev.Data))
					}
				}
			}

			if ctx.Err() == nil {
				return fmt.Errorf("event stream closed by daemon")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print cosmetic events (blinks, highlights, key presses)")

	return cmd
}
