package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oliverisaac/goli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"notes-backend/auth"
	"notes-backend/config"
	"notes-backend/db"
)

func init() {
	goli.InitLogrus(logrus.InfoLevel)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "notes-backend",
		Short:         "Note-taking API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := setup(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer store.Close()
			logrus.Info("Schema is up to date")
			return nil
		},
	})
	return root
}

// setup loads the configuration and opens a migrated store.
func setup(ctx context.Context, configPath string) (config.Config, db.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, errors.Wrap(err, "loading config")
	}
	logrus.SetLevel(cfg.Level())

	store, err := db.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		return cfg, nil, errors.Wrap(err, "DB connection error")
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return cfg, nil, errors.Wrap(err, "migrating database")
	}
	return cfg, store, nil
}

func serve(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, store, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(store, auth.NewTokens(cfg.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("server is running on http://localhost%s", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving http")
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down")
}
