package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgo/micropost/internal/model"
)

// errRejected is returned when the checked post violates a rule. main exits
// non-zero without printing it again.
var errRejected = errors.New("post rejected")

func newCheckCmd() *cobra.Command {
	var (
		author    string
		asJSON    bool
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "check [content]",
		Short: "Check post content against the post rules",
		Long: `Check post content against the post rules.

Content comes from the first argument, or from stdin with --stdin. Omitting
both checks a post with no content. The author is only set when --author is
given. Exits 1 when the post would be rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content *string
			switch {
			case fromStdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				s := strings.TrimSuffix(string(data), "\n")
				content = &s
			case len(args) == 1:
				content = &args[0]
			}

			var authorID *string
			if cmd.Flags().Changed("author") {
				authorID = &author
			}

			v := model.ValidatePost(content, authorID)
			if err := printResult(cmd.OutOrStdout(), v, asJSON); err != nil {
				return err
			}
			if !v.Empty() {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "author reference, e.g. user:alice")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read content from stdin")

	return cmd
}

func printResult(w io.Writer, v model.Violations, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model.NewValidationResult(v))
	}

	if v.Empty() {
		_, err := fmt.Fprintln(w, "accepted")
		return err
	}

	if _, err := fmt.Fprintln(w, "rejected"); err != nil {
		return err
	}
	for _, k := range v.Kinds() {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", k, k.Message()); err != nil {
			return err
		}
	}
	return nil
}
