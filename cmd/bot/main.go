package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BorisSolomonia/9-telebots/internal/bot"
	"github.com/BorisSolomonia/9-telebots/internal/config"
	"github.com/BorisSolomonia/9-telebots/internal/customer"
	"github.com/BorisSolomonia/9-telebots/internal/database"
	"github.com/BorisSolomonia/9-telebots/internal/handlers"
	"github.com/BorisSolomonia/9-telebots/internal/ledger"
	"github.com/BorisSolomonia/9-telebots/internal/llm"
	"github.com/BorisSolomonia/9-telebots/internal/parse"
	"github.com/BorisSolomonia/9-telebots/internal/resolve"
	"github.com/BorisSolomonia/9-telebots/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	mode, err := parse.ModeFromString(cfg.ParseMode)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	store, err := customer.Load(cfg.CustomersFile)
	if err != nil {
		slog.Error("failed to load customers", "err", err)
		os.Exit(1)
	}
	slog.Info("customers loaded", "file", cfg.CustomersFile, "count", store.Index().Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmClient := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
	verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err = llmClient.Verify(verifyCtx)
	cancel()
	if err != nil {
		slog.Error("llm credential check failed", "err", err)
		os.Exit(1)
	}

	cache := resolve.NewCache(cfg.CacheTTL, cfg.CacheSize)
	resolver := resolve.New(store.Index(), llmClient, cache)
	parser := parse.New(mode, store.Index(), llmClient)
	workbook := ledger.NewWorkbook(cfg.LedgerFile, cfg.WorksheetName)

	// The mirror only powers admin stats; run without it if it cannot open.
	var repo *database.Repository
	if db, err := database.New(cfg.MirrorDB); err != nil {
		slog.Warn("mirror database unavailable", "path", cfg.MirrorDB, "err", err)
	} else {
		defer db.Close()
		repo = database.NewRepository(db)
	}

	b, err := bot.New(cfg.TelegramToken, cfg, store, parser, resolver, workbook, repo, cache)
	if err != nil {
		slog.Error("telegram auth failed", "err", err)
		os.Exit(1)
	}

	h := handlers.New(store, repo)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/api/customers", h.ListCustomers)
	r.Post("/api/customers", h.CreateCustomer)
	r.Get("/api/stats", h.Stats)
	r.Get("/api/entries", h.RecentEntries)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	go func() {
		slog.Info("admin server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server failed", "err", err)
		}
	}()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("admin server shutdown failed", "err", err)
	}
}
