package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect the admin API access token",
}

var showToken bool

var acquireTokenCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Exchange the client credentials for an access token, reusing a valid cached one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		t, err := deps.Tokens.Token(ctx)
		if err != nil {
			return err
		}
		value := maskToken(t.AccessToken)
		if showToken {
			value = t.AccessToken
		}
		return p.KeyValues("Access token", [][2]string{
			{"token", value},
			{"state", deps.Tokens.State(ctx).String()},
			{"expires_at", t.ExpiresAt.Format(time.RFC3339)},
		})
	},
}

var tokenStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Report whether a cached token exists and is still usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		return p.KeyValues("Access token", [][2]string{
			{"client_id", deps.Config.Auth.ClientID},
			{"state", deps.Tokens.State(ctx).String()},
			{"detail", deps.Tokens.Describe(ctx)},
		})
	},
}

var forgetTokenCmd = &cobra.Command{
	Use:   "forget",
	Short: "Drop the cached token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.Tokens.Invalidate(ctx); err != nil {
			return err
		}
		p.Success("Cached token dropped")
		return nil
	},
}

func maskToken(t string) string {
	if len(t) <= 12 {
		return "****"
	}
	return t[:8] + "…" + t[len(t)-4:]
}

func init() {
	acquireTokenCmd.Flags().BoolVar(&showToken, "show", false, "print the full token")
	tokenCmd.AddCommand(acquireTokenCmd, tokenStateCmd, forgetTokenCmd)
}
