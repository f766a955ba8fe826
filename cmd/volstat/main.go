package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ougirez/volstat/internal/api"
	"github.com/ougirez/volstat/internal/config"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store"
	"github.com/ougirez/volstat/internal/service/aggregation"
	"github.com/ougirez/volstat/internal/service/auth"
	"github.com/ougirez/volstat/internal/service/deletion"
	"github.com/ougirez/volstat/internal/service/export"
	"github.com/ougirez/volstat/internal/service/parser"
	"github.com/ougirez/volstat/internal/service/platform"
	"github.com/ougirez/volstat/internal/service/statistics"
	"github.com/ougirez/volstat/internal/service/upload"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath = flag.String("config", "config.yaml", "path to the YAML config")
	issueToken = flag.String("issue-token", "", "print a token for email:role and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	if err = logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	authService := auth.NewService(cfg.AuthSecret, cfg.TokenTTL)

	if *issueToken != "" {
		if err = printToken(authService, *issueToken); err != nil {
			fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
			os.Exit(2)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, authService); err != nil {
		logger.Fatal(ctx, err)
	}
}

func run(ctx context.Context, cfg *config.Config, authService *auth.Service) error {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err = store.Migrate(ctx, pool); err != nil {
		return err
	}

	platformService := platform.NewPlatformService(store.NewStore(pool), parser.NewParser())

	snapshot, err := platformService.FetchCurrentSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	statisticsStore := statistics.NewStore()
	statisticsStore.Load(snapshot)
	logger.Infof(ctx, "loaded snapshot: %d regions, %d volunteers", len(snapshot.Data), snapshot.TotalVolunteers)

	engine := aggregation.NewEngine(statisticsStore)
	defer engine.Close()

	uploads := upload.NewRegistry(platformService, platformService, statisticsStore, cfg.SessionTTL)

	svc, err := api.NewAPIService(api.Dependencies{
		Store:    statisticsStore,
		Engine:   engine,
		Uploads:  uploads,
		Cascade:  deletion.NewCascade(platformService, statisticsStore),
		Exporter: export.NewExporter(platformService, cfg.ExportSheetName),
		Files:    platformService,
		Auth:     authService,
	}, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		BodyLimit:      cfg.UploadMaxSizeRaw,
		MaxUploadSize:  cfg.UploadMaxSize,
	})
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof(gCtx, "listening on %s", cfg.ServerAddr)
		return svc.Serve(cfg.ServerAddr)
	})
	g.Go(func() error {
		return uploads.Run(gCtx, cfg.SessionTTL/2)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return svc.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// connect opens the pool and pings it, retrying while the database comes up.
func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	var pool *pgxpool.Pool
	op := func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err = p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ConnectRetries), ctx)
	err = backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		logger.Warnf(ctx, "postgres not ready, retrying in %s: %s", next, err.Error())
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func printToken(authService *auth.Service, arg string) error {
	email, role, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("want email:role, got %q", arg)
	}

	token, err := authService.IssueToken(context.Background(), email, domain.Role(role))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
