// seed clears and repopulates the EventHub stores from a YAML fixture.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/eventhub/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/eventhub/internal/adapters/mongo"
	"github.com/robertarktes/eventhub/internal/config"
	"github.com/robertarktes/eventhub/internal/observability"
	"github.com/robertarktes/eventhub/internal/seed"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		fixturePath string
		catalogOnly bool
		dryRun      bool
		timeout     time.Duration
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture to load (default: built-in sample data)")
	flagSet.BoolVar(&catalogOnly, "catalog-only", false, "seed only Mongo users and events")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the fixture without writing anything")
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fixture, err := seed.Load(fixturePath)
	if err != nil {
		return err
	}
	ds, err := seed.Build(ctx, fixture, time.Now().UTC())
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("fixture ok: %d users, %d events, %d tickets, %d attendees, %d notifications\n",
			len(ds.Users), len(ds.Events), len(ds.Tickets), len(ds.Attendees), len(ds.Notifications))
		return nil
	}

	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect to mongo: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database(cfg.MongoDatabase)

	var ledger seed.LedgerWriter
	if !catalogOnly {
		if cfg.CRDBDSN == "" {
			return fmt.Errorf("CRDB_DSN is required unless --catalog-only is set")
		}
		pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
		if err != nil {
			return fmt.Errorf("connect to crdb: %w", err)
		}
		defer pool.Close()
		ledger = crdb.NewRepository(pool)
	}

	seeder := seed.NewSeeder(
		mongoadapter.NewUserRepository(mongoDB, logger),
		mongoadapter.NewCatalogRepository(mongoDB, logger),
		ledger,
		logger,
	)
	return seeder.Run(ctx, ds)
}
