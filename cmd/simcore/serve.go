package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"simcore/internal/adapters/covexport"
	"simcore/internal/adapters/httpapi"
	"simcore/internal/backend"
	"simcore/internal/blob"
	"simcore/internal/config"
	"simcore/internal/core"
	"simcore/internal/infra/persistence/postgres"
	"simcore/internal/infra/persistence/sqlite"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control plane",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	ctx := cmd.Context()
	store, err := blob.Open(ctx, blob.Options{
		Driver:    blob.Driver(cfg.Blob.Driver),
		Root:      cfg.Blob.Root,
		Bucket:    cfg.Blob.Bucket,
		Region:    cfg.Blob.Region,
		Endpoint:  cfg.Blob.Endpoint,
		PathStyle: cfg.Blob.PathStyle,
	})
	if err != nil {
		return err
	}

	plane := core.NewControlPlane(backend.NewSynthetic(), backend.NewSyntheticCoverage())
	ckpt, err := openCheckpointer(ctx, cfg.Persistence)
	if err != nil {
		return err
	}
	if ckpt != nil {
		if err := plane.AttachCheckpointer(ckpt); err != nil {
			return err
		}
		defer func() { _ = ckpt.Close() }()
	}

	var metrics *httpapi.Metrics
	if cfg.Monitoring.Enabled {
		metrics = httpapi.NewMetrics(plane.ActiveSimulations)
	}
	handler := httpapi.NewHandler(plane, covexport.NewExporter(store), metrics)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("control plane listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openCheckpointer(ctx context.Context, cfg config.Persistence) (core.Checkpointer, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlite.NewStore(cfg.Path)
	case "postgres":
		return postgres.NewStore(ctx, cfg.DSN)
	default:
		return nil, errors.New("unknown persistence driver " + cfg.Driver)
	}
}
