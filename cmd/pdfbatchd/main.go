// Command pdfbatchd is the PDF extraction service: the /v1 HTTP API plus an
// optional MCP endpoint over stdio.
//
// Usage:
//
//	pdfbatchd pdfbatchd.yml                  # serve with the given config
//	pdfbatchd -hashpw 's3cret'               # print a bcrypt hash and exit
//	MCP_TRANSPORT=stdio pdfbatchd cfg.yml    # additionally serve MCP tools
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/docgrove/pdfbatch/httpapi"
	"github.com/docgrove/pdfbatch/runlog"
)

func main() {
	hashpw := flag.String("hashpw", "", "print a bcrypt hash for the given password and exit")
	flag.Parse()

	if *hashpw != "" {
		hash, err := httpapi.HashPassword(*hashpw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdfbatchd: hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	var level slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfgPath := "pdfbatchd.yml"
	if flag.NArg() > 0 {
		cfgPath = flag.Arg(0)
	}
	cfg, err := httpapi.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pdfbatchd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *httpapi.Config, logger *slog.Logger) error {
	var opts []httpapi.Option
	var db *sql.DB
	if cfg.RunlogDB != "" {
		var err error
		db, err = runlog.Open(cfg.RunlogDB, runlog.WithMkdirAll())
		if err != nil {
			return fmt.Errorf("open runlog: %w", err)
		}
		defer db.Close()
		rec := runlog.NewRecorder(db,
			runlog.WithSource("http"),
			runlog.WithLogger(logger))
		opts = append(opts, httpapi.WithRecorder(rec))
	}

	api, err := httpapi.New(cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("httpapi: %w", err)
	}

	if db != nil && cfg.RetentionDays > 0 {
		go retentionLoop(ctx, db, cfg.RetentionDays, logger)
	}

	// Optional MCP over stdio.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "pdfbatch",
			Version: "1.0.0",
		}, nil)
		api.Pipeline().RegisterMCP(mcpSrv)

		go func() {
			transport := &mcp.IOTransport{Reader: os.Stdin, Writer: os.Stdout}
			ss, err := mcpSrv.Connect(ctx, transport, nil)
			if err != nil {
				logger.Error("mcp connect", "error", err)
				return
			}
			logger.Info("mcp serving on stdio")
			if err := ss.Wait(); err != nil && ctx.Err() == nil {
				logger.Error("mcp session", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// retentionLoop expires old runs at startup and then twice a day.
func retentionLoop(ctx context.Context, db *sql.DB, days int, logger *slog.Logger) {
	sweep := func() {
		if err := runlog.Cleanup(ctx, db, runlog.RetentionConfig{RunsDays: days}); err != nil {
			logger.Error("runlog cleanup", "error", err)
			return
		}
		logger.Debug("runlog cleanup done", "retention_days", days)
	}
	sweep()

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
