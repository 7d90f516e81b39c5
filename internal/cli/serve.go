package cli

import (
	"context"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"exhibitcore/internal/adapters/httpapi"
	"exhibitcore/internal/core"
	"exhibitcore/internal/logging"
	"exhibitcore/internal/receipt"
)

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			a, err := openApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			prom, err := core.NewPrometheusMetricsRecorder(reg, a.cfg.Metrics.Namespace)
			if err != nil {
				return err
			}
			metrics := core.MultiMetricsRecorder{prom}
			if a.cfg.Metrics.Expvar {
				metrics = append(metrics, core.NewExpvarMetricsRecorder(a.cfg.Metrics.Namespace+"_operations"))
			}
			a.service = a.newService(core.WithMetricsRecorder(metrics))

			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return serve(ctx, a, reg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides configuration)")
	return cmd
}

func serve(ctx context.Context, a *app, reg *prometheus.Registry) error {
	if logging.ParseLevel(a.cfg.Log.Level) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	receipts, err := receipt.New(receipt.Options{Location: a.location})
	if err != nil {
		return err
	}
	opts := httpapi.Options{
		Logger:         a.logger.With("component", "http"),
		CORSOrigins:    a.cfg.HTTP.CORSOrigins,
		MaxImportBytes: a.cfg.HTTP.MaxImportBytes,
		Receipts:       receipts,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if a.cfg.Metrics.Expvar {
		opts.Vars = expvar.Handler()
	}
	router, err := httpapi.NewRouter(a.service, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: a.cfg.HTTP.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr, "storage", a.cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
