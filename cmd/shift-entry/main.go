package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shift-production/internal/config"
	"shift-production/internal/service/entries"
	"shift-production/internal/service/report"
	"shift-production/internal/storage/mysql"
	"shift-production/internal/storage/xlsx"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustConfig()

	log, closeLog := setupLogger(cfg.Env, cfg.ErrorLogPath)
	defer closeLog()

	storage, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		log.Error("failed to open storage", slog.String("driver", cfg.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStorage()

	entryService := entries.NewService(log, storage)
	reportService := report.NewService(storage)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, storage, entryService, reportService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop server", slog.String("error", err.Error()))
		}
	}()

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Driver),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to start server", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped")
}

func openStorage(cfg config.Storage) (Storage, func() error, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		s, err := mysql.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverXLSX:
		s, err := xlsx.New(cfg.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// dualHandler writes every record to the console handler and copies errors
// into a separate file handler.
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		if err = h.coreHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		// file write errors are dropped
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env, errorLogPath string) (*slog.Logger, func()) {
	return newLogger(env, os.Stdout, errorLogPath)
}

func newLogger(env string, out io.Writer, errorLogPath string) (*slog.Logger, func()) {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envLocal, envProd:
		coreHandler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	case envDev:
		coreHandler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	if errorLogPath == "" {
		return slog.New(coreHandler), func() {}
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		logger := slog.New(coreHandler)
		logger.Warn("cannot open error log file", slog.String("path", errorLogPath), slog.String("error", err.Error()))
		return logger, func() {}
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	}), func() { errorFile.Close() }
}
