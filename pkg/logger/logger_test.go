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

func TestWithContext_AddsKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetDefault(prev) })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, GuestIDKey, "g-1")
	InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "g-1", entry["guest_id"])
	assert.NotContains(t, entry, "user_id")
}
