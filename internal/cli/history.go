package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Game history commands",
	}

	cmd.AddCommand(newHistorySaveCmd())

	return cmd
}

func newHistorySaveCmd() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "save <game>",
		Short: "Record a played game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration < 0 {
				return fmt.Errorf("--duration must not be negative")
			}

			req := request.SaveGameRequest{
				Game:     args[0],
				Duration: int(duration / time.Second),
			}
			var result response.SaveGameResponse

			if err := client.Post(cmd.Context(), "/api/v1/games/history", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "How long the game lasted, e.g. 25m")

	return cmd
}
