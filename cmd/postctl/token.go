package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgo/micropost/pkg/jwt"
)

type tokenOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

func newTokenCmd() *cobra.Command {
	var (
		keyPath string
		userID  string
		issuer  string
		expiry  time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an author",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if expiry <= 0 {
				return fmt.Errorf("--exp must be positive")
			}

			svc, err := jwt.NewService(jwt.Config{
				PrivateKeyPath: keyPath,
				Issuer:         issuer,
				ExpirationMins: int(expiry / time.Minute),
			})
			if err != nil {
				return fmt.Errorf("load key: %w", err)
			}

			token, err := svc.Sign(jwt.Claims{
				Subject:   userID,
				UserID:    userID,
				ExpiresAt: time.Now().Add(expiry).Unix(),
			})
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(tokenOutput{
					AccessToken: token,
					TokenType:   "Bearer",
					ExpiresIn:   int64(expiry.Seconds()),
					UserID:      userID,
				})
			}

			fmt.Fprintf(out, "Author:  %s\n", userID)
			fmt.Fprintf(out, "Expires: %s\n", time.Now().Add(expiry).Format(time.RFC3339))
			fmt.Fprintf(out, "Token:   %s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "./keys/private.pem", "path to the RSA private key")
	cmd.Flags().StringVar(&userID, "user", "", "author reference the token identifies")
	cmd.Flags().StringVar(&issuer, "issuer", "micropost.forgo.software", "token issuer")
	cmd.Flags().DurationVar(&expiry, "exp", time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the token as JSON")

	return cmd
}
