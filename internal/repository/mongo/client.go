// Package mongo implements the user store on MongoDB, the document store the
// service was designed around.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maxviazov/user-records-service/internal/config"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client with command logging and verifies the primary is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zerolog.Logger) (*mongo.Client, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetMonitor(newCommandMonitor(*logger))
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("Successfully connected to MongoDB")
	return client, nil
}

type pinger struct{ client *mongo.Client }

// NewPinger adapts a mongo client to the repository.Pinger interface.
func NewPinger(client *mongo.Client) repository.Pinger { return &pinger{client: client} }

func (p *pinger) Ping(ctx context.Context) error {
	if p.client == nil {
		return errors.New("mongo client is nil")
	}
	return p.client.Ping(ctx, readpref.Primary())
}

// newCommandMonitor mirrors the pgx tracelog adapter: every driver command is
// logged through a child logger tagged component=mongo.
func newCommandMonitor(logger zerolog.Logger) *event.CommandMonitor {
	l := logger.With().Str("component", "mongo").Logger()
	return &event.CommandMonitor{
		Started: func(_ context.Context, evt *event.CommandStartedEvent) {
			var e *zerolog.Event
			if traceEnabled(l) {
				e = l.Trace().Str("command", evt.Command.String())
			} else {
				e = l.Debug()
			}
			e.Str("cmd", evt.CommandName).
				Str("db", evt.DatabaseName).
				Int64("request_id", evt.RequestID).
				Msg("mongo command started")
		},
		Succeeded: func(_ context.Context, evt *event.CommandSucceededEvent) {
			l.Debug().
				Str("cmd", evt.CommandName).
				Int64("request_id", evt.RequestID).
				Dur("took", evt.Duration).
				Msg("mongo command succeeded")
		},
		Failed: func(_ context.Context, evt *event.CommandFailedEvent) {
			l.Warn().
				Str("cmd", evt.CommandName).
				Int64("request_id", evt.RequestID).
				Dur("took", evt.Duration).
				Str("failure", evt.Failure).
				Msg("mongo command failed")
		},
	}
}

// traceEnabled reports whether trace events would be written at all; full
// command bodies are only rendered then.
func traceEnabled(l zerolog.Logger) bool {
	return l.GetLevel() <= zerolog.TraceLevel && zerolog.GlobalLevel() <= zerolog.TraceLevel
}
