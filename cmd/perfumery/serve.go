package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/perfumery/internal/auth"
	"github.com/vbonduro/perfumery/internal/config"
	"github.com/vbonduro/perfumery/internal/copywriter"
	claudewriter "github.com/vbonduro/perfumery/internal/copywriter/claude"
	ollamawriter "github.com/vbonduro/perfumery/internal/copywriter/ollama"
	"github.com/vbonduro/perfumery/internal/db"
	"github.com/vbonduro/perfumery/internal/imagestore"
	"github.com/vbonduro/perfumery/internal/imagestore/local"
	"github.com/vbonduro/perfumery/internal/imagestore/memory"
	"github.com/vbonduro/perfumery/internal/logging"
	"github.com/vbonduro/perfumery/internal/service"
	"github.com/vbonduro/perfumery/internal/store"
	"github.com/vbonduro/perfumery/internal/web"
	"github.com/vbonduro/perfumery/internal/web/templates"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := seedCatalog(ctx, database, logger); err != nil {
		logger.Error("failed to seed catalog", "error", err)
		return err
	}

	images, err := newImageStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return err
	}
	writer, err := newCopywriter(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize copywriter", "error", err)
		return err
	}
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to initialize sessions", "error", err)
		return err
	}

	userStore := store.NewUserStore(database)
	catalogService := service.NewCatalogService(
		store.NewBrandStore(database),
		store.NewPerfumeStore(database),
		store.NewCommentStore(database),
		userStore,
		images,
		writer,
		logger,
	)
	accountService := service.NewAccountService(userStore, logger)
	limiter := auth.NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst)

	server := web.NewServer(catalogService, accountService, sessions, limiter, templates.FS, logger)
	if cfg.MetricsEnabled {
		server.HandleMetrics()
	}

	return serveHTTP(ctx, server.HTTPServer(cfg.ListenAddr), logger)
}

// serveHTTP runs srv until ctx is cancelled, then drains in-flight requests.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}

func newImageStore(cfg *config.Config, logger *slog.Logger) (imagestore.ImageStore, error) {
	switch cfg.ImageBackend {
	case "", "local":
		logger.Info("using local image store", "path", cfg.ImagePath)
		return local.NewLocalImageStore(cfg.ImagePath)
	case "memory":
		logger.Info("using in-memory image store")
		return memory.NewMemoryImageStore(), nil
	default:
		return nil, fmt.Errorf("unknown IMAGE_BACKEND %q", cfg.ImageBackend)
	}
}

// newCopywriter returns a nil Writer when drafting is disabled.
func newCopywriter(cfg *config.Config, logger *slog.Logger) (copywriter.Writer, error) {
	switch cfg.CopywriterBackend {
	case "", "none":
		logger.Info("description drafting disabled")
		return nil, nil
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, errors.New("CLAUDE_API_KEY is required when COPYWRITER_BACKEND=claude")
		}
		logger.Info("using Claude copywriter", "model", cfg.ClaudeModel)
		return claudewriter.NewClaudeWriter(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama copywriter", "model", cfg.OllamaModel)
		return ollamawriter.NewOllamaWriter(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown COPYWRITER_BACKEND %q", cfg.CopywriterBackend)
	}
}
