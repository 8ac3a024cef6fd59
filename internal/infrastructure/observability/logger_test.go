package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	otellog "go.opentelemetry.io/otel/log"
)

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, severityFor(zerolog.DebugLevel))
	assert.Equal(t, otellog.SeverityInfo, severityFor(zerolog.InfoLevel))
	assert.Equal(t, otellog.SeverityWarn, severityFor(zerolog.WarnLevel))
	assert.Equal(t, otellog.SeverityError, severityFor(zerolog.ErrorLevel))
	assert.Equal(t, otellog.SeverityFatal, severityFor(zerolog.PanicLevel))
}

func TestLoggerFromContext_NoSpan(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/movies", 200, 0)
		RecordStorageMetric(ctx, nil, "save", "reviews", 0)
		RecordCacheHit(ctx, nil, "k")
		RecordCacheMiss(ctx, nil, "k")
		RecordFlag(ctx, nil, true)
	})
}
