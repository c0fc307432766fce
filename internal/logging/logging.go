// Package logging wires zerolog onto the eventbus.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	eventbus "github.com/graphmod/graphmod/internal/eventbus"
	events "github.com/graphmod/graphmod/internal/events"
	reqid "github.com/graphmod/graphmod/internal/reqid"
)

// New builds the process logger. An empty level defaults to info.
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Subscribe attaches eventbus subscribers that log request and assembly
// lifecycle events. The returned function detaches them.
func Subscribe(log zerolog.Logger) (unsubscribe func()) {
	var cancels []func()

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		log.Info().
			Str("request_id", rid).
			Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Int("status", e.Status).
			Dur("duration", e.Duration).
			Msg("http request")
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		rid, _ := reqid.FromContext(ctx)
		ev := log.Info()
		if len(e.Errors) > 0 {
			ev = log.Warn()
		}
		ev.
			Str("request_id", rid).
			Str("operation", e.OperationName).
			Str("type", e.OperationType).
			Int("errors", len(e.Errors)).
			Dur("duration", e.Duration).
			Msg("graphql operation")
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.SchemaBuild) {
		ev := log.Debug()
		if e.Err != nil {
			ev = log.Error().Err(e.Err)
		}
		ev.
			Str("component", e.Component).
			Dur("duration", e.Duration).
			Msg("schema build")
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.ContextBuild) {
		if e.Err == nil {
			return
		}
		rid, _ := reqid.FromContext(ctx)
		log.Error().
			Str("request_id", rid).
			Err(e.Err).
			Msg("context build failed")
	}))

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
