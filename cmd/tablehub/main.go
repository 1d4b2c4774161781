package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leengari/tablehub/internal/config"
	"github.com/leengari/tablehub/internal/logging"
	"github.com/leengari/tablehub/internal/network"
	"github.com/leengari/tablehub/internal/repl"
	"github.com/leengari/tablehub/internal/storage"
	"github.com/leengari/tablehub/internal/store"
)

func main() {
	configPath := flag.String("config", "tablehub.json", "Path to the JSON config file")
	serverMode := flag.Bool("server", false, "Run in server mode")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	dbPath := flag.String("db", "", "Database file (overrides config)")
	importPath := flag.String("import", "", "CSV file to load into -table, then exit")
	tableName := flag.String("table", "", "Table name for -import")
	force := flag.Bool("force", false, "Recreate the -table if it exists")
	flag.Parse()

	if err := run(*configPath, *serverMode, *port, *dbPath, *importPath, *tableName, *force); err != nil {
		fmt.Fprintln(os.Stderr, "tablehub:", err)
		os.Exit(1)
	}
}

func run(configPath string, serverMode bool, port int, dbPath, importPath, tableName string, force bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeFn, err := logging.SetupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeFn()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(storage.NewSQLiteOpener(cfg.CreateIfMissing), logger)
	st.AddObserver(store.NewLoggingObserver(logger))
	if _, err := st.Connect(ctx, cfg.DBPath, false); err != nil {
		return err
	}
	defer func() {
		slog.Info("Shutting down - closing database...")
		if err := st.Close(); err != nil {
			slog.Error("shutdown close failed", "error", err)
		}
	}()

	switch {
	case importPath != "":
		if tableName == "" {
			return fmt.Errorf("-import requires -table")
		}
		res, err := repl.ImportCSV(ctx, st, tableName, importPath, force)
		if err != nil {
			return err
		}
		slog.Info(res.Message, "rows_affected", res.RowsAffected, "skipped", len(res.Skipped))
		return nil
	case serverMode:
		slog.Info("Starting Server mode...", "api_root", cfg.APIRoot)
		srv := network.NewServer(st, cfg.APIRoot, logger)
		return network.ListenAndServe(ctx, srv.HTTPServer(cfg.Addr(), cfg.ReadTimeout.Duration, cfg.WriteTimeout.Duration), logger)
	default:
		slog.Info("Starting REPL mode...")
		return repl.Start(ctx, st)
	}
}
