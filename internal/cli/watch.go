package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/partysync"
)

func newPartyWatchCmd() *cobra.Command {
	var (
		interval      time.Duration
		untilFinished bool
	)

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Poll a party and print each change",
		Long: `Poll the party every --interval and print a line whenever it changes.

The watch ends when the party is deleted, when it finishes (with
--until-finished), or on Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watchParty(ctx, cmd, model.PartyID(args[0]), interval, untilFinished)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", partysync.DefaultInterval, "Polling interval")
	cmd.Flags().BoolVar(&untilFinished, "until-finished", false, "Stop once the party is finished")

	return cmd
}

func watchParty(ctx context.Context, cmd *cobra.Command, id model.PartyID, interval time.Duration, untilFinished bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := output(cmd)
	watcher := partysync.NewWatcher(client, interval, logger(cmd))

	var lastUpdated time.Time
	err := watcher.Watch(ctx, id, func(p *model.Party) {
		if !p.UpdatedAt.Equal(lastUpdated) {
			lastUpdated = p.UpdatedAt
			out.PrintUpdate(p)
		}
		if untilFinished && p.Status == model.PartyStatusFinished {
			cancel()
		}
	})

	switch {
	case errors.Is(err, model.ErrPartyNotFound):
		if watcher.Last() == nil {
			return err
		}
		out.PrintMessage(fmt.Sprintf("Party %s was deleted", id))
		return nil
	case err != nil:
		return err
	}
	return nil
}
