package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (c *cli) partyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Inspect, export, and import the character roster",
	}
	cmd.AddCommand(c.partyExportCommand())
	cmd.AddCommand(c.partyImportCommand())
	return cmd
}

func (c *cli) partyExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster as JSON to stdout or a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				doc, err := s.parties.Export(ctx)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
					return err
				}
				return os.WriteFile(out, doc, 0o600)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) partyImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the roster from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return c.withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				roster, err := s.parties.Import(ctx, doc)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d characters\n", len(roster.Characters))
				return err
			})
		},
	}
}
