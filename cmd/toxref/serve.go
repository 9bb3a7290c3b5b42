package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/toxref/internal/api"
	"github.com/Veraticus/toxref/internal/certs"
	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/config"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/metrics"
	"github.com/Veraticus/toxref/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup API and web client",
		Long: `Start the HTTP API used by the web client. Each request opens the databases
read-only for its own duration, so they may be replaced while the server runs.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "listen address (default :5000)")
	cmd.Flags().String("static-dir", "", "directory of the web client to serve")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.listen_addr", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("server.static_dir", cmd.Flags().Lookup("static-dir"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return serve(cmd.Context(), a, func(addr string) {
		cmd.PrintErrln(cli.FormatInfo("Listening on " + addr))
	})
}

// newServer assembles the HTTP server from the configuration.
func newServer(a *app, m *metrics.Metrics) *http.Server {
	hook := storage.WithFailureHook(m.SourceReadFailed)
	logger := storage.WithLogger(a.logger)
	dbs := api.Databases{
		Classifications: storage.Opener(a.cfg.Databases.Classifications, logger, hook),
		Toxicology:      storage.Opener(a.cfg.Databases.Toxicology, logger, hook),
		VTR:             storage.Opener(a.cfg.Databases.VTR, logger, hook),
	}

	handler := api.NewHandler(dbs, engine.Config{Parallelism: a.cfg.Engine.Parallelism}, m, a.logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Metrics:     m,
		Logger:      a.logger,
		StaticDir:   a.cfg.Server.StaticDir,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	})

	return &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve runs the server until ctx is cancelled, then drains it.
func serve(ctx context.Context, a *app, ready func(addr string)) error {
	server := newServer(a, metrics.New())

	if a.cfg.Server.TLS {
		dir, err := config.File("certs")
		if err != nil {
			return err
		}
		manager := certs.NewFileManager(dir)
		tlsConfig, err := manager.TLSConfig()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		server.TLSConfig = tlsConfig
		slog.Info("Serving HTTPS with a self-signed certificate", "cert", manager.CertFile())
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", server.Addr, "tls", server.TLSConfig != nil)
		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	if ready != nil {
		ready(server.Addr)
	}

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
