package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/jackc/pgx/v5"
)

// MetricsTracer implements pgx.QueryTracer to collect database metrics.
type MetricsTracer struct {
	metrics *metrics.DatabaseMetrics
}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func NewMetricsTracer(m *metrics.DatabaseMetrics) *MetricsTracer {
	return &MetricsTracer{metrics: m}
}

type queryContextKey struct{}

type queryContext struct {
	startTime time.Time
	queryName string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{
		startTime: time.Now(),
		queryName: queryName(data.SQL),
	})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}

	t.metrics.QueryDuration.WithLabelValues(qctx.queryName).Observe(time.Since(qctx.startTime).Seconds())
	if data.Err != nil {
		t.metrics.QueryErrors.WithLabelValues(qctx.queryName).Inc()
	}
}

const namePrefix = "-- name: "

// queryName labels a statement by its "-- name:" header, falling back to the
// lowercased leading keyword so label cardinality stays bounded.
func queryName(sql string) string {
	sql = strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(sql, namePrefix); ok {
		name, _, _ := strings.Cut(rest, "\n")
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}

	keyword, _, _ := strings.Cut(sql, " ")
	keyword, _, _ = strings.Cut(keyword, "\n")
	if keyword == "" {
		return "unknown"
	}
	if len(keyword) > 20 {
		keyword = keyword[:20]
	}
	return strings.ToLower(keyword)
}
