package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/services/codegen"
)

func newPartyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Party lobby commands",
	}

	cmd.AddCommand(newPartyCreateCmd())
	cmd.AddCommand(newPartyGetCmd())
	cmd.AddCommand(newPartyCodeCmd())
	cmd.AddCommand(newPartyJoinCmd())
	cmd.AddCommand(newPartyLeaveCmd())
	cmd.AddCommand(newPartyStatusCmd("start", "Start the game (host only)"))
	cmd.AddCommand(newPartyStatusCmd("finish", "Finish the game (host only)"))
	cmd.AddCommand(newPartyDeleteCmd())
	cmd.AddCommand(newPartyMineCmd())
	cmd.AddCommand(newPartyQRCmd())
	cmd.AddCommand(newPartyWatchCmd())

	return cmd
}

func partyPath(id string, suffix string) string {
	return "/api/v1/parties/" + url.PathEscape(id) + suffix
}

func newPartyCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <game>",
		Short: "Create a new party",
		Long: fmt.Sprintf(`Create a new party hosted by the signed-in user.

Games: %s, %s, %s`, model.GameKingsCup, model.GameTruthOrDare, model.GameWouldYouRather),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreatePartyRequest{Game: args[0]}
			var result model.Party

			if err := client.Post(cmd.Context(), "/api/v1/parties", req, &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get party details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Party

			if err := client.Get(cmd.Context(), partyPath(args[0], ""), &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "code <code>",
		Short: "Look up a party by join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnMalformedCode(cmd, args[0])
			var result model.Party

			if err := client.Get(cmd.Context(), "/api/v1/parties/code/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a waiting party by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnMalformedCode(cmd, args[0])
			req := request.JoinPartyRequest{Code: args[0]}
			var result model.Party

			if err := client.Post(cmd.Context(), "/api/v1/parties/join", req, &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a party",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Party

			if err := client.Post(cmd.Context(), partyPath(args[0], "/leave"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyStatusCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Party

			if err := client.Post(cmd.Context(), partyPath(args[0], "/"+action), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(&result)
			return nil
		},
	}
}

func newPartyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a party (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), partyPath(args[0], "")); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Deleted party %s", args[0]))
			return nil
		},
	}
}

func newPartyMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List unfinished parties you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PartyList

			if err := client.Get(cmd.Context(), "/api/v1/parties/mine", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPartyQRCmd() *cobra.Command {
	var (
		file string
		size int
	)

	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Save the party's join QR code as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := partyPath(args[0], "/qr")
			if size > 0 {
				path += fmt.Sprintf("?size=%d", size)
			}

			png, err := client.GetRaw(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			output(cmd).PrintMessage(fmt.Sprintf("Wrote %s", file))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "party-qr.png", "Output file")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (default: server default)")

	return cmd
}

// warnMalformedCode flags codes that can never match. The lookup still runs.
func warnMalformedCode(cmd *cobra.Command, code string) {
	if normalized := codegen.Normalize(code); !codegen.IsWellFormed(normalized) {
		logger(cmd).Warn("party codes are 6 letters or digits", slog.String("code", string(normalized)))
	}
}
