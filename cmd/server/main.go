package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charlesng35/volunteerhub/internal/app"
	"github.com/charlesng35/volunteerhub/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

// Actual version can be specified in build command.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "volunteerhub-server",
		Short:         "Volunteer Hub API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration directory or file")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed data, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), configPath)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "volunteerhub-server version: %s\n", version)
		},
	})

	return root
}

// prepare loads configuration, applies runtime defaults and initialises logging.
func prepare(configPath string) (*app.Config, *zap.Logger, error) {
	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	applied, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}

	log := logger.WithModule("bootstrap")
	for key := range applied {
		log.Info("runtime default applied", zap.String("key", key))
	}
	return cfg, log, nil
}

func migrate(ctx context.Context, configPath string) error {
	cfg, log, err := prepare(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() // best effort

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	log.Info("database migrated")
	return ctx.Err()
}

func serve(ctx context.Context, configPath string) error {
	cfg, log, err := prepare(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() // best effort

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background(), log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}
