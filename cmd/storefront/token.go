package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/storefront-assistant/auth"
)

// newTokenCmd mints a bearer token for local testing against the protected routes
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		name   string
		email  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			token, err := auth.NewHMACValidator(rt.cfg.Auth).IssueToken(userID, name, email)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name used in greetings")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
