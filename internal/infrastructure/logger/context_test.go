package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		l := zap.NewExample()
		ctx := WithContext(context.Background(), l)
		assert.Same(t, l, FromContext(ctx))
	})

	t.Run("returns nop logger when absent", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestWithRequestIDAndUserID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, l := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, l = WithUserID(ctx, l, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))

	FromContext(ctx).Info("stored")
	l.Info("returned")

	entries := recorded.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		fields := e.ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "user-1", fields["user_id"])
	}
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestContextLogger(t *testing.T) {
	t.Run("uses context logger without duplicating fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-7")

		L(ctx, nil).Info("from context")

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Context, 1)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	})

	t.Run("enriches fallback logger from bare context values", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-8")
		ctx = context.WithValue(ctx, UserIDKey, "user-8")

		L(ctx, zap.New(core)).With(OrderFields("sales_order", "SO-0001")...).Warn("fallback")

		entries := recorded.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-8", fields["request_id"])
		assert.Equal(t, "user-8", fields["user_id"])
		assert.Equal(t, "sales_order", fields["order_kind"])
		assert.Equal(t, "SO-0001", fields["order_reference"])
	})

	t.Run("nil fallback is safe", func(t *testing.T) {
		assert.NotPanics(t, func() {
			L(context.Background(), nil).Error("dropped")
		})
		assert.NotNil(t, L(context.Background(), nil).Zap())
	})
}
