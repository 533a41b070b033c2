package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
)

func TestStatementKind(t *testing.T) {
	cases := map[string]string{
		"":                                "unknown",
		"   ":                             "unknown",
		"select 1":                        "SELECT",
		"\n\t\tWITH m AS (INSERT ...)":    "WITH",
		"UPDATE memes SET upvotes = 1":    "UPDATE",
		"SELECT pg_advisory_lock($1)":     "SELECT",
		"vacuum analyze memes":            "other",
		"delete from votes where id = $1": "DELETE",
	}
	for sql, want := range cases {
		assert.Equal(t, want, statementKind(sql), sql)
	}
}

func TestMetricsTracer_RecordsDurationAndErrors(t *testing.T) {
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	tracer := NewMetricsTracer(m)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "INSERT INTO x"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 2"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: pgx.ErrNoRows})

	assert.Equal(t, 2, testutil.CollectAndCount(m.DBQueryDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBErrors.WithLabelValues("INSERT")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DBErrors.WithLabelValues("SELECT")))
}

func TestMetricsTracer_IgnoresForeignContext(t *testing.T) {
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	NewMetricsTracer(m).TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	assert.Equal(t, 0, testutil.CollectAndCount(m.DBErrors))
}
