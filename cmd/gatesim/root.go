// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/db47h/gatesim"
	"github.com/db47h/gatesim/hwlib"
	"github.com/db47h/gatesim/internal/config"
	"github.com/db47h/gatesim/internal/logging"
	"github.com/db47h/gatesim/internal/observability"
	"github.com/db47h/gatesim/metrics"
	"github.com/db47h/gatesim/netfile"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

// app holds the state shared by all commands.
//
type app struct {
	cfgFile     string
	logLevel    string
	logFormat   string
	metricsAddr string
	tracing     bool

	cfg      *config.Config
	log      *slog.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	shutdown func(context.Context) error
	srv      *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gatesim",
		Short:         "Digital logic simulator",
		Long:          `gatesim loads chip definitions and simulation scripts from HCL netfiles, checks them and runs the simulations.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "configuration file (YAML)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.BoolVar(&a.tracing, "trace", false, "export OpenTelemetry spans to stderr")

	root.AddCommand(newCheckCmd(a), newRunCmd(a), newTestCmd(a), newWatchCmd(a))
	return root
}

// runE wraps a command so that resources acquired in setup are released
// whether the command fails or not.
//
func (a *app) runE(f func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown(cmd.Context())
		return f(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if f.Changed("trace") {
		cfg.Tracing.Enabled = a.tracing
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	a.tracer, a.shutdown, err = observability.InitTracing(cfg.Tracing.Enabled, cmd.ErrOrStderr(), a.log)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		if a.metrics, err = metrics.New(reg); err != nil {
			return err
		}
		if err = a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "metrics endpoint")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.srv.Serve(l); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	a.log.Info("serving metrics", slog.String("addr", l.Addr().String()))
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	observability.Shutdown(ctx, a.shutdown, a.log)
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(ctx)
	}
}

// options returns the circuit options derived from the configuration.
//
func (a *app) options() []gatesim.Option {
	opts := []gatesim.Option{
		gatesim.WithIterationLimit(a.cfg.Simulation.IterationLimit),
		gatesim.WithWorkers(a.cfg.Simulation.Workers),
		gatesim.WithLogger(a.log),
		gatesim.WithTracer(a.tracer),
	}
	if a.metrics != nil {
		opts = append(opts, gatesim.WithMetrics(a.metrics))
	}
	return opts
}

func library() gatesim.Library {
	return gatesim.Builtins().Merge(hwlib.Library())
}

// load loads and compiles a netfile.
//
func (a *app) load(filename string) (*netfile.File, map[string]gatesim.NewPartFn, error) {
	f, err := netfile.Load(filename)
	if err != nil {
		return nil, nil, err
	}
	chips, err := f.Build(library())
	if err != nil {
		return nil, nil, errors.Wrap(err, filename)
	}
	a.log.Debug("netfile loaded", slog.String("file", filename), slog.Int("chips", len(chips)), slog.Int("simulations", len(f.Simulations)))
	return f, chips, nil
}
