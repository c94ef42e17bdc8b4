package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	operation string
	at        time.Time
}

// metricsTracer регистрируется в пуле pgx и снимает метрики по каждому
// запросу: операция берётся из первого слова SQL.
type metricsTracer struct{}

func (metricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{
		operation: queryOperation(data.SQL),
		at:        time.Now(),
	})
}

func (metricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	status := "success"
	if data.Err != nil {
		status = "error"
	}

	metrics.RecordDatabaseQuery(start.operation, status, time.Since(start.at))
}

func queryOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}

	return strings.ToLower(fields[0])
}
