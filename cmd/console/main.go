package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/bullion_console/internal/api"
	"github.com/dgnsrekt/bullion_console/internal/config"
	"github.com/dgnsrekt/bullion_console/internal/console"
	"github.com/dgnsrekt/bullion_console/internal/netutil"
	"github.com/dgnsrekt/bullion_console/internal/notify"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
	"github.com/dgnsrekt/bullion_console/internal/ui"
	"github.com/dgnsrekt/bullion_console/internal/upstream"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.LoadConsole()
	if err != nil {
		slog.Error("failed to load console config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("console config loaded",
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"search_url", cfg.SearchURL,
		"screen_base_url", cfg.ScreenBaseURL,
		"lists_url", cfg.ListsURL,
		"lookup_timeout_ms", cfg.LookupTimeoutMS,
		"screen_timeout_ms", cfg.ScreenTimeoutMS,
		"lists_timeout_ms", cfg.ListsTimeoutMS,
		"algorithm_catalog", cfg.AlgorithmCatalog,
		"report_schema", cfg.ReportSchema,
		"notify", cfg.NotifyURL != "",
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	catalog := selector.DefaultCatalog()
	if cfg.AlgorithmCatalog != "" {
		catalog, err = selector.LoadCatalog(cfg.AlgorithmCatalog)
		if err != nil {
			slog.Error("failed to load algorithm catalog", "path", cfg.AlgorithmCatalog, "error", err)
			os.Exit(1)
		}
	}

	schema, err := report.ParseSchema(cfg.ReportSchema)
	if err != nil {
		slog.Error("invalid report schema", "error", err)
		os.Exit(1)
	}

	views, err := ui.New()
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{}
	up := upstream.NewClient(httpClient, upstream.Endpoints{
		SearchURL:         cfg.SearchURL,
		ScreenBaseURL:     cfg.ScreenBaseURL,
		ScreenDefaultPath: cfg.ScreenDefaultPath,
		ListsURL:          cfg.ListsURL,
	}, cfg.UpstreamLogMaxBytes)

	opts := console.Options{
		Catalog:       catalog,
		Schema:        schema,
		Currency:      cfg.CurrencySymbol,
		LookupTimeout: cfg.LookupTimeout(),
		ScreenTimeout: cfg.ScreenTimeout(),
		ListsTimeout:  cfg.ListsTimeout(),
	}
	if n := notify.New(cfg.NotifyURL, httpClient); n != nil {
		opts.Notifier = n
	}

	svc := console.NewService(up, opts)
	h := api.NewServer(svc, views)

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind console listener", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	addr := ln.Addr().String()

	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		slog.Info("console listening", "addr", addr, "console", "http://"+addr+"/", "docs", "http://"+addr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("console server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("console shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
