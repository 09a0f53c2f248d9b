// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package observability sets up OpenTelemetry tracing for the gatesim command.
//
package observability

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name of the gatesim tracer.
//
const TracerName = "github.com/db47h/gatesim"

// InitTracing installs a tracer provider exporting spans to w and returns a
// tracer for circuits together with a shutdown function flushing pending
// spans. If enabled is false, a no-op tracer is returned.
//
func InitTracing(enabled bool, w io.Writer, log *slog.Logger) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		log.Debug("tracing disabled")
		return tp.Tracer(TracerName), func(context.Context) error { return nil }, nil
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create trace exporter")
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exp),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", slog.String("exporter", "stdout"))
	return tp.Tracer(TracerName), tp.Shutdown, nil
}

// Shutdown calls shutdown with a bounded timeout, logging errors.
//
func Shutdown(ctx context.Context, shutdown func(context.Context) error, log *slog.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}
}
