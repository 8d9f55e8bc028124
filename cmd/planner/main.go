package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/production-planner/internal/bot"
	"github.com/Spok95/production-planner/internal/config"
	"github.com/Spok95/production-planner/internal/dialog"
	"github.com/Spok95/production-planner/internal/domain/catalog"
	"github.com/Spok95/production-planner/internal/domain/planning"
	"github.com/Spok95/production-planner/internal/importer"
	"github.com/Spok95/production-planner/internal/infra/db"
	httpx "github.com/Spok95/production-planner/internal/infra/http"
	"github.com/Spok95/production-planner/internal/infra/logger"
	"github.com/Spok95/production-planner/internal/infra/metrics"
)

var (
	configPath  = flag.String("config", "config/example.yaml", "path to YAML config")
	migrateOnly = flag.Bool("migrate-only", false, "apply DB migrations and exit")
	importDir   = flag.String("import", "", "load CSV files from dir and exit")
)

type storage struct {
	catalog catalog.Store
	states  dialog.Store
	close   func()
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.App.Env)

	if *migrateOnly {
		if cfg.Storage.Driver != config.StoragePostgres {
			log.Error("migrate-only requires storage.driver=postgres")
			os.Exit(1)
		}
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	if *importDir != "" {
		if err := runImport(ctx, st.catalog, *importDir, log); err != nil {
			log.Error("import failed", "dir", *importDir, "err", err)
			os.Exit(1)
		}
		return
	}
	if cfg.Import.Dir != "" {
		if err := runImport(ctx, st.catalog, cfg.Import.Dir, log); err != nil {
			log.Error("startup import failed", "dir", cfg.Import.Dir, "err", err)
			os.Exit(1)
		}
	}

	var m *metrics.Metrics
	opts := httpx.Options{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
	}
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		opts.Gatherer = prometheus.DefaultGatherer
	}

	planner := planning.NewPlanner(st.catalog)
	api := httpx.NewAPI(st.catalog, planner, log, m)
	srv := httpx.New(opts, api, log, m)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver)

	if cfg.Telegram.Token != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
		} else {
			log.Info("telegram bot authorized", "username", tg.Self.UserName)
			b := bot.New(tg, log, st.catalog, planner, st.states, m)
			go func() {
				if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("bot stopped", "err", err)
				}
			}()
		}
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Info("using in-memory storage")
		return &storage{catalog: catalog.NewMemoryStore(), states: dialog.NewMemoryRepo(), close: func() {}}, nil
	}

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		return nil, err
	}
	log.Info("migrations applied")

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	log.Info("db connected")
	return &storage{catalog: catalog.NewRepo(pool), states: dialog.NewRepo(pool), close: pool.Close}, nil
}

func runImport(ctx context.Context, store catalog.Store, dir string, log *slog.Logger) error {
	sum, err := importer.New(store, log).Run(ctx, dir)
	if err != nil {
		return err
	}
	for _, t := range sum.Tables() {
		log.Info("import summary", "file", t.File, "loaded", t.Loaded, "skipped", t.Skipped, "missing", t.Missing)
	}
	return nil
}
