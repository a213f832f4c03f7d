package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the postctl command tree
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postctl",
		Short: "Tools for the micropost API",
		Long: `Tools for the micropost API.

Check post content against the post rules offline, generate signing keys
and mint bearer tokens for local testing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newCheckCmd(),
		newTokenCmd(),
		newKeysCmd(),
	)

	return cmd
}
