package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
)

func TestQueryOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sql      string
		expected string
	}{
		{"SELECT * FROM alerts", "select"},
		{"  insert into fingerprints (fp) values ($1)", "insert"},
		{"UPDATE source_monitoring SET status = $1", "update"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, queryOperation(tt.sql))
	}
}

func TestMetricsTracer_CountsQueries(t *testing.T) {
	tracer := metricsTracer{}

	successBefore := testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("select", "success"))
	errorBefore := testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("delete", "error"))

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "DELETE FROM alerts"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("соединение разорвано")})

	assert.Equal(t, successBefore+1, testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("select", "success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("delete", "error")))
}

func TestMetricsTracer_IgnoresForeignContext(t *testing.T) {
	tracer := metricsTracer{}

	before := testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("unknown", "success"))

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Equal(t, before, testutil.ToFloat64(metrics.DatabaseQueriesTotal.WithLabelValues("unknown", "success")))
}
