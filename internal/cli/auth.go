package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
)

const signInSecretHeader = "X-Signin-Secret"

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out",
	}

	cmd.AddCommand(newAuthSignInCmd())
	cmd.AddCommand(newAuthSignOutCmd())

	return cmd
}

func newAuthSignInCmd() *cobra.Command {
	var req request.SignInRequest

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with an identity asserted by the OAuth front end",
		Long: `Sign in as the given identity and save the session token.

The server only accepts this when it shares the sign-in secret with the
caller, so this is meant for development and operator use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Subject == "" || req.Email == "" {
				return fmt.Errorf("--subject and --email are required")
			}
			if cfg.SignInSecret != "" {
				client.SetHeader(signInSecretHeader, cfg.SignInSecret)
			}

			var result response.AuthResponse
			if err := client.Post(cmd.Context(), "/api/v1/auth/signin", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Subject, "subject", "", "Identity subject, becomes the user id (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Image, "image", "", "Avatar image URL")
	cmd.Flags().StringVar(&cfg.SignInSecret, "signin-secret", cfg.SignInSecret, "Shared sign-in secret (env: PARTYCTL_SIGNIN_SECRET)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the current session and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), "/api/v1/auth/signout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			output(cmd).PrintMessage("Signed out")
			return nil
		},
	}
}
