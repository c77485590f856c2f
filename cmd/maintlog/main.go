package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/auth"
	"github.com/dmitrijs2005/maintlog/internal/blobstore"
	"github.com/dmitrijs2005/maintlog/internal/cli"
	"github.com/dmitrijs2005/maintlog/internal/config"
	"github.com/dmitrijs2005/maintlog/internal/filex"
	"github.com/dmitrijs2005/maintlog/internal/flagx"
	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/services"
	"github.com/dmitrijs2005/maintlog/internal/session"
	"github.com/dmitrijs2005/maintlog/internal/steps"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/memory"
	"github.com/dmitrijs2005/maintlog/internal/store/postgres"
	"github.com/dmitrijs2005/maintlog/internal/store/sqlite"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	if owner := issueTokenFor(os.Args[1:]); owner != "" {
		if cfg.SecretKey == "" {
			log.Fatalf("issue token: secret key is not configured")
		}
		token, err := auth.GenerateToken(owner, []byte(cfg.SecretKey), cfg.TokenValidity)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := run(ctx, cfg, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error(ctx, "maintlog stopped", "err", err)
		os.Exit(1)
	}
}

// issueTokenFor returns the owner named by -issue-token, if any.
func issueTokenFor(args []string) string {
	fs := flag.NewFlagSet("maintlog", flag.ContinueOnError)
	owner := fs.String("issue-token", "", "print an owner token for the postgres backend and exit")
	if err := flagx.ParseKnown(fs, args); err != nil {
		log.Fatalf("%v", err)
	}
	return *owner
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger, in io.Reader, out io.Writer) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info(ctx, "store opened", "backend", cfg.Backend, "version", st.Version())

	var photos blobstore.PhotoStore
	if cfg.S3.Enabled() {
		s3, err := blobstore.NewS3(ctx, blobstore.Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("photo store: %w", err)
		}
		photos = s3
	}

	repos := repositories.NewSet(st)
	svc := cli.Services{
		Entries:    services.NewEntryService(repos, photos, logger),
		Summary:    services.NewSummaryService(repos, time.Local),
		Preventive: services.NewPreventiveService(repos, cfg.PreventiveSoonDays, logger),
		Settings:   services.NewSettingsService(repos.Settings),
		Lock:       services.NewLockService(repos.Settings, logger),
		Backup:     services.NewBackupService(st, repos.Settings, logger),
		Repos:      repos,
	}
	sess := session.New(repos, steps.New(nil), logger)

	return cli.NewApp(svc, sess, in, out, logger).Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		owner, err := auth.OwnerFromToken(cfg.OwnerToken, []byte(cfg.SecretKey))
		if err != nil {
			return nil, fmt.Errorf("owner token: %w", err)
		}
		return postgres.Open(ctx, postgres.Options{
			DSN:     cfg.DatabaseDSN,
			Version: cfg.SchemaVersion,
			OwnerID: owner,
		})
	case config.BackendMemory:
		return memory.New(versionOrLatest(cfg.SchemaVersion))
	default:
		if cfg.DBPath != ":memory:" {
			if err := filex.EnsureParentDir(cfg.DBPath); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(ctx, sqlite.Options{Path: cfg.DBPath, Version: cfg.SchemaVersion})
	}
}

func versionOrLatest(v int) int {
	if v == 0 {
		return store.LatestVersion
	}
	return v
}
