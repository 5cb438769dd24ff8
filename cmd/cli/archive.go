package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List and prune archived conversations",
	}
	cmd.AddCommand(c.archiveListCommand())
	cmd.AddCommand(c.archivePruneCommand())
	return cmd
}

func (c *cli) archiveListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all archives, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				archives, err := s.archives.List(ctx)
				if err != nil {
					return err
				}
				for _, a := range archives {
					name := a.Name
					if name == "" {
						name = "(unnamed)"
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d messages\n",
						a.ID, a.Timestamp.Format(time.RFC3339), name, len(a.Messages))
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (c *cli) archivePruneCommand() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete the oldest archives beyond the newest N",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				archives, err := s.archives.List(ctx)
				if err != nil {
					return err
				}
				if len(archives) <= keep {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "nothing to prune")
					return err
				}
				for _, a := range archives[:len(archives)-keep] {
					if err = s.archives.Delete(ctx, a.ID); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d archives\n", len(archives)-keep)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "number of newest archives to keep")
	return cmd
}
