package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureHandler(buf *bytes.Buffer) slog.Handler {
	return NewRequestContextHandler(slog.NewJSONHandler(buf, nil))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestContextHandler_StampsContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(captureHandler(&buf))

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUser(ctx, "alex@example.com")
	ctx = WithStage(ctx, "stage1_intent")
	log.InfoContext(ctx, "pipeline_stage1_classified")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "alex@example.com", entry["user"])
	assert.Equal(t, "stage1_intent", entry["stage"])
}

func TestRequestContextHandler_PlainContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(captureHandler(&buf))

	log.InfoContext(context.Background(), "no_request_scope")

	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "user")
	assert.NotContains(t, entry, "stage")
}

func TestContextLogger_WithContextBindsFields(t *testing.T) {
	var buf bytes.Buffer
	cl := &ContextLogger{
		base:        slog.New(slog.NewJSONHandler(&buf, nil)),
		serviceName: "answer-pipeline",
	}

	ctx := WithRequestID(context.Background(), "req-456")
	cl.WithContext(ctx).Info("ask_pipeline_failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "answer-pipeline", entry["service"])
	assert.Equal(t, "req-456", entry["request_id"])
}
