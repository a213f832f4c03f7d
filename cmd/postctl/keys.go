package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgo/micropost/pkg/jwt"
)

func newKeysCmd() *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate an RSA key pair for token signing",
		RunE: func(cmd *cobra.Command, args []string) error {
			privPath := filepath.Join(dir, "private.pem")
			pubPath := filepath.Join(dir, "public.pem")

			if !force {
				for _, p := range []string{privPath, pubPath} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					}
				}
			}

			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create key dir: %w", err)
			}
			if err := jwt.GenerateKeyPair(privPath, pubPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privPath, pubPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./keys", "directory to write the key pair into")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing keys")

	return cmd
}
