package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/spf13/cobra"
)

func (c *cli) campaignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Inspect campaigns",
	}
	cmd.AddCommand(c.campaignShowCommand())
	return cmd
}

func (c *cli) campaignShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a campaign as JSON, the current one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				var (
					campaign *models.Campaign
					err      error
				)
				if len(args) == 1 {
					campaign, err = s.campaigns.Get(ctx, args[0])
				} else {
					campaign, err = s.campaigns.CurrentCampaign(ctx)
				}
				if err != nil {
					return err
				}
				if campaign == nil {
					return fmt.Errorf("no current campaign")
				}
				doc, err := json.MarshalIndent(campaign, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
				return err
			})
		},
	}
}
