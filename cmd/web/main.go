package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/archive"
	"github.com/jlaasanen/dmvault/internal/broker"
	"github.com/jlaasanen/dmvault/internal/campaign"
	"github.com/jlaasanen/dmvault/internal/dm"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/envstruct"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/logging"
	"github.com/jlaasanen/dmvault/internal/party"
	"github.com/jlaasanen/dmvault/internal/pprofserver"
	"github.com/jlaasanen/dmvault/internal/rules"
	"github.com/jlaasanen/dmvault/internal/session"
	"github.com/jlaasanen/dmvault/internal/sqlite"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
	"github.com/joho/godotenv"
)

type config struct {
	// DMBaseURL points at the narrative generator service.
	DMBaseURL string `env:"DMVAULT_DM_BASE_URL" envDefault:"http://localhost:8000"`
	// DMTimeout bounds one generator round trip.
	DMTimeout time.Duration `env:"DMVAULT_DM_TIMEOUT" envDefault:"120s"`
	// QuotaBytes caps total stored play-state. Zero disables the cap.
	QuotaBytes int64 `env:"DMVAULT_STORAGE_QUOTA_BYTES" envDefault:"5242880"`
}

type application struct {
	logger       *slog.Logger
	parties      *party.Store
	sessions     *session.Store
	campaigns    *campaign.Store
	adventures   *adventure.Store
	archives     *archive.Store
	rules        *rules.Store
	synchronizer *synchronizer.Synchronizer
	broker       *synchronizer.Broker
}

func main() {
	addr := flag.String("addr", "localhost:4000", "HTTP network address")
	pprofPort := flag.String("pprof-port", ":6060", "Port for pprof listening on localhost")
	dbURL := flag.String("sqlite-url", "./dmvault.sqlite", "SQLite URL")
	flag.Parse()

	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	if err := run(context.Background(), logger, *addr, *pprofPort, *dbURL); err != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "server exited", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, addr, pprofPort, dbURL string) error {
	// Initialise pprof listening on localhost so that it's not open to the world
	pprofserver.Launch(pprofPort, logger)

	// A missing .env file is fine, the environment may be set by other means.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load .env")
	}

	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		return errors.Wrap(err, "read configuration")
	}

	db, err := sqlite.NewDatabase(ctx, dbURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(closeErr))
		}
	}()
	db.StartDatabaseOptimizer(ctx)
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("url", dbURL))

	docs := docstore.New(db, cfg.QuotaBytes, logger)
	events := broker.NewFanout[string, synchronizer.ChangeEvent]()
	go events.Start()
	defer events.Stop()

	app := application{
		logger:     logger,
		parties:    party.NewStore(docs, logger),
		sessions:   session.NewStore(docs, logger),
		campaigns:  campaign.NewStore(docs, logger),
		adventures: adventure.NewStore(docs, logger),
		archives:   archive.NewStore(docs, logger),
		rules:      rules.NewStore(docs, logger),
		broker:     events,
	}
	generator := dm.NewClient(cfg.DMBaseURL, cfg.DMTimeout, logger)
	app.synchronizer = synchronizer.New(
		app.parties, app.sessions, app.campaigns, app.adventures, generator, events, logger,
	)

	return app.configureAndStartServer(ctx, addr)
}
