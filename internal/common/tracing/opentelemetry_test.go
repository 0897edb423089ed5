package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_禁用时返回可用的空追踪器(t *testing.T) {
	tracer, err := Init(&Config{
		ServiceName: "delivery-market-backend",
		Enabled:     false,
	})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	ctx := context.Background()

	t.Run("Start 返回不记录的 span", func(t *testing.T) {
		newCtx, span := tracer.Start(ctx, "order.create")
		require.NotNil(t, span)
		assert.False(t, span.IsRecording())
		assert.Equal(t, ctx, newCtx)

		// 对空 span 的操作不应 panic
		span.SetAttributes(WithOrderNo("DO20260103153000ABCD1234"))
		span.End()
	})

	t.Run("StartSpan 带属性同样安全", func(t *testing.T) {
		_, span := tracer.StartSpan(ctx, "settlement.close", attribute.Int64("period.id", 1))
		require.NotNil(t, span)
		assert.False(t, span.IsRecording())
		span.End()
	})

	t.Run("Shutdown 无 provider 时直接返回", func(t *testing.T) {
		assert.NoError(t, tracer.Shutdown(ctx))
	})
}
