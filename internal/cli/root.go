// Package cli wires configuration, storage and the lifecycle manager behind
// the exhibitd command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"exhibitcore/internal/config"
	"exhibitcore/internal/core"
	"exhibitcore/internal/logging"
	"exhibitcore/pkg/domain"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the exhibitd command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "exhibitd",
		Short:         "Forensic exhibit intake and chain-of-custody register",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (optional)")

	cmd.AddCommand(
		serveCmd(&configPath),
		exportCmd(&configPath),
		importCmd(&configPath),
		statsCmd(&configPath),
		listCmd(&configPath),
	)
	return cmd
}

// app is the assembled runtime shared by every subcommand.
type app struct {
	cfg      config.Config
	location *time.Location
	logger   *slog.Logger
	gateway  domain.ClosableGateway
	service  *core.Service
	logOut   io.Writer
}

// openApp loads configuration, opens the configured gateway and builds a
// service that logs and audits through the configured logger.
func openApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, logOut)
	gateway, err := core.OpenGateway(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a := &app{cfg: cfg, location: loc, logger: logger, gateway: gateway, logOut: logOut}
	a.service = a.newService()
	return a, nil
}

// newService builds a service over the app's gateway; extra options override the defaults.
func (a *app) newService(extra ...core.ServiceOption) *core.Service {
	opts := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithLocation(a.location),
		core.WithAuditRecorder(core.NewSlogAuditRecorder(a.logger)),
	}
	if a.cfg.Log.Trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(a.logOut)))
	}
	return core.NewService(a.gateway, append(opts, extra...)...)
}

func (a *app) Close() {
	if err := a.gateway.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
}
