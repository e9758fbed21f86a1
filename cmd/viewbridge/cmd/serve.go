package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-drift/viewbridge/cmd/viewbridge/internal/config"
	"github.com/go-drift/viewbridge/cmd/viewbridge/internal/demoviews"
	"github.com/go-drift/viewbridge/cmd/viewbridge/internal/devserver"
	"github.com/go-drift/viewbridge/pkg/errors"
	"github.com/go-drift/viewbridge/pkg/platform"
)

func init() {
	RegisterCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	var (
		dir   string
		addr  string
		views []string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo views to remote hosts",
		Long: `Start the dev server. Remote hosts connect to /ws and drive the demo
views with JSON messages:

  {"op":"show","name":"echo"}
  {"op":"setDataString","name":"echo","value":"hi"}
  {"op":"dispose","name":"echo"}

Settings are read from viewbridge.yaml in the project root when present.
Flags override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				root, err := config.FindProjectRoot()
				if err != nil {
					return err
				}
				dir = root
			}
			cfg, err := config.Resolve(dir)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if len(views) > 0 {
				cfg.Views = views
			}
			if debug {
				cfg.LogLevel = zapcore.DebugLevel
				cfg.Verbose = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Project root (default: nearest go.mod)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from viewbridge.yaml)")
	cmd.Flags().StringSliceVar(&views, "view", nil, "Demo view to register (repeatable, default all)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log debug traces and error stacks")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Resolved) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	platform.SetLogger(logger)
	errors.SetHandler(errors.NewZapHandler(logger, cfg.Verbose))
	defer errors.SetHandler(nil)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := platform.NewMetrics(
		platform.WithRegisterer(reg),
		platform.WithNamespace(cfg.Namespace),
		platform.WithConstLabels(prometheus.Labels{"app": cfg.AppName}),
	)
	if err != nil {
		return err
	}

	registry := platform.NewViewRegistry(platform.WithMetrics(metrics), platform.WithLogger(logger))
	if err := demoviews.Register(registry, cfg.Views...); err != nil {
		return err
	}

	srv, err := devserver.New(devserver.Options{
		Registry: registry,
		Gatherer: reg,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		srv.Close()
		return err
	}
	logger.Info("serving views",
		zap.String("app", cfg.AppName),
		zap.String("addr", l.Addr().String()),
		zap.Strings("views", registry.Names()),
	)

	err = srv.Serve(ctx, l)
	registry.Close()
	logger.Info("stopped")
	return err
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}
