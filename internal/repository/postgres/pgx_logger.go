package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// sqlLogger routes pgx tracelog output into zerolog under the postgres store tags.
type sqlLogger struct {
	logger zerolog.Logger
}

func newSQLLogger(logger zerolog.Logger) *sqlLogger {
	return &sqlLogger{logger: logger.With().
		Str("component", "pgx").
		Str("store", "postgres").
		Logger()}
}

func (l *sqlLogger) eventFor(level tracelog.LogLevel) *zerolog.Event {
	switch level {
	case tracelog.LogLevelTrace:
		return l.logger.Trace()
	case tracelog.LogLevelDebug:
		return l.logger.Debug()
	case tracelog.LogLevelInfo:
		return l.logger.Info()
	case tracelog.LogLevelWarn:
		return l.logger.Warn()
	case tracelog.LogLevelError:
		return l.logger.Error()
	default:
		return l.logger.Info().Str("pgx_level", level.String())
	}
}

// Log lifts the fields pgx always sends (sql, args, time, err) into typed
// zerolog fields; query args are only written at trace level since they carry
// user data such as emails.
func (l *sqlLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}
	ev := l.eventFor(level)
	if !ev.Enabled() {
		return
	}

	rest := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if k == "sql" {
				ev = ev.Str("sql", val)
				continue
			}
		case time.Duration:
			if k == "time" {
				ev = ev.Dur("took", val)
				continue
			}
		case error:
			if k == "err" {
				ev = ev.Err(val)
				continue
			}
		}
		if k == "args" {
			if level == tracelog.LogLevelTrace {
				ev = ev.Interface("args", v)
			}
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		ev = ev.Fields(rest)
	}
	ev.Msg(msg)
}
