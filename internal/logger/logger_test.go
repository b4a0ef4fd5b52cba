package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("whatever"))
}

func TestContextWith_Accumulates(t *testing.T) {
	ctx := ContextWith(context.Background(), "session_id", "s1")
	ctx = ContextWith(ctx, "user_id", int64(7))

	attrs, _ := ctx.Value(ctxKey{}).([]any)
	assert.Equal(t, []any{"session_id", "s1", "user_id", int64(7)}, attrs)
	assert.NotNil(t, WithContext(ctx))
	assert.NotNil(t, WithContext(context.Background()))
}
