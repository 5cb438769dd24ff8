// Command cli offers maintenance access to the play-state stores without
// going through the web API: roster import/export, archive housekeeping,
// and campaign inspection.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/archive"
	"github.com/jlaasanen/dmvault/internal/campaign"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/logging"
	"github.com/jlaasanen/dmvault/internal/party"
	"github.com/jlaasanen/dmvault/internal/rules"
	"github.com/jlaasanen/dmvault/internal/session"
	"github.com/jlaasanen/dmvault/internal/sqlite"
	"github.com/spf13/cobra"
)

type stores struct {
	parties    *party.Store
	sessions   *session.Store
	campaigns  *campaign.Store
	adventures *adventure.Store
	archives   *archive.Store
	rules      *rules.Store
}

type cli struct {
	dbURL  string
	logger *slog.Logger
}

// withStores opens the database for the duration of one command.
func (c *cli) withStores(ctx context.Context, fn func(context.Context, *stores) error) error {
	db, err := sqlite.NewDatabase(ctx, c.dbURL, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	docs := docstore.New(db, 0, c.logger)
	return fn(ctx, &stores{
		parties:    party.NewStore(docs, c.logger),
		sessions:   session.NewStore(docs, c.logger),
		campaigns:  campaign.NewStore(docs, c.logger),
		adventures: adventure.NewStore(docs, c.logger),
		archives:   archive.NewStore(docs, c.logger),
		rules:      rules.NewStore(docs, c.logger),
	})
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
	c := &cli{logger: logger}

	root := &cobra.Command{
		Use:           "dmvault",
		Short:         "Manage dmvault play-state from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dbURL, "sqlite-url", "./dmvault.sqlite", "SQLite URL")

	root.AddCommand(c.partyCommand())
	root.AddCommand(c.archiveCommand())
	root.AddCommand(c.campaignCommand())

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
