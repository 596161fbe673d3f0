package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "api",
		Short: "Resume builder HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	setupFlags(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.Flags().String("port", defaults.GetString("port"), "HTTP listen port")
	cmd.Flags().String("log-level", defaults.GetString("log_level"), "Log level (debug, info, warn, error)")
	cmd.Flags().String("database-url", "", "Postgres connection URL (overrides env)")
	cmd.Flags().Bool("migrate", false, "Apply database migrations before serving")

	bindFlag(cmd, "port", "port")
	bindFlag(cmd, "log_level", "log-level")
	bindFlag(cmd, "database_url", "database-url")
	bindFlag(cmd, "migrate", "migrate")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadWith(viper.GetViper())
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(signalCtx, cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err.Error()})
		return err
	}
	defer app.Close()
	defer telemetry.Sync()

	if viper.GetBool("migrate") {
		if err := db.RunMigrations(signalCtx, app.DB); err != nil {
			return err
		}
	}
	app.StartBackground(signalCtx)

	httpServer := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.starting", map[string]any{"addr": httpServer.Addr, "env": cfg.Env})
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		telemetry.Info("api.stopping", nil)
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
