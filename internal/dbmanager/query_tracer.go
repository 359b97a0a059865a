package dbmanager

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talx-hub/gopher-points/internal/model"
)

type queryTracer struct {
	log *slog.Logger
}

type traceStartKey struct{}

type traceStart struct {
	sql string
	at  time.Time
}

func (t *queryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	t.log.LogAttrs(ctx,
		slog.LevelDebug,
		"running query",
		slog.String("query", data.SQL),
		slog.Any("args", data.Args),
	)
	return context.WithValue(ctx,
		traceStartKey{}, traceStart{sql: data.SQL, at: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	start, ok := ctx.Value(traceStartKey{}).(traceStart)
	if !ok {
		return
	}

	if data.Err != nil {
		t.log.LogAttrs(ctx,
			slog.LevelDebug,
			"query failed",
			slog.String("query", start.sql),
			slog.Duration("duration", time.Since(start.at)),
			slog.Any(model.KeyLoggerError, data.Err),
		)
		return
	}
	t.log.LogAttrs(ctx,
		slog.LevelDebug,
		"query finished",
		slog.String("query", start.sql),
		slog.Duration("duration", time.Since(start.at)),
		slog.String("command", data.CommandTag.String()),
	)
}
