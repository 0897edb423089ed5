// Package order 状态机单元测试
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		current models.OrderStatus
		target  models.OrderStatus
		want    bool
	}{
		{"待接单到已接单", models.OrderStatusPending, models.OrderStatusAccepted, true},
		{"待接单到已取消", models.OrderStatusPending, models.OrderStatusCancelled, true},
		{"待接单不能直接备餐", models.OrderStatusPending, models.OrderStatusPreparing, false},
		{"待接单不能直接完成", models.OrderStatusPending, models.OrderStatusCompleted, false},
		{"已接单到备餐", models.OrderStatusAccepted, models.OrderStatusPreparing, true},
		{"已接单到已取消", models.OrderStatusAccepted, models.OrderStatusCancelled, true},
		{"备餐到取货", models.OrderStatusPreparing, models.OrderStatusPickedUp, true},
		{"备餐到已取消", models.OrderStatusPreparing, models.OrderStatusCancelled, true},
		{"取货后不能取消", models.OrderStatusPickedUp, models.OrderStatusCancelled, false},
		{"取货到店铺收款", models.OrderStatusPickedUp, models.OrderStatusShopPaid, true},
		{"店铺收款后不能取消", models.OrderStatusShopPaid, models.OrderStatusCancelled, false},
		{"店铺收款到完成", models.OrderStatusShopPaid, models.OrderStatusCompleted, true},
		{"完成是终态", models.OrderStatusCompleted, models.OrderStatusPending, false},
		{"取消是终态", models.OrderStatusCancelled, models.OrderStatusAccepted, false},
		{"不能回退", models.OrderStatusPreparing, models.OrderStatusAccepted, false},
		{"不能跳级", models.OrderStatusAccepted, models.OrderStatusPickedUp, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionTo(tc.current, tc.target))
		})
	}
}

func TestAllowedTransitions(t *testing.T) {
	t.Run("终态没有后继状态", func(t *testing.T) {
		assert.Empty(t, AllowedTransitions(models.OrderStatusCompleted))
		assert.Empty(t, AllowedTransitions(models.OrderStatusCancelled))
	})

	t.Run("后继状态与流转表一致", func(t *testing.T) {
		for current, expected := range transitionTable {
			allowed := AllowedTransitions(current)
			assert.ElementsMatch(t, expected, allowed)
			for _, target := range allowed {
				assert.True(t, CanTransitionTo(current, target))
			}
		}
	})

	t.Run("返回的切片是副本", func(t *testing.T) {
		allowed := AllowedTransitions(models.OrderStatusPending)
		if len(allowed) > 0 {
			allowed[0] = models.OrderStatusCompleted
		}
		assert.ElementsMatch(t,
			[]models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusCancelled},
			AllowedTransitions(models.OrderStatusPending),
		)
	})
}

func TestRequiresRider(t *testing.T) {
	assert.False(t, RequiresRider(models.OrderStatusPending))
	assert.True(t, RequiresRider(models.OrderStatusAccepted))
	assert.True(t, RequiresRider(models.OrderStatusPreparing))
	assert.True(t, RequiresRider(models.OrderStatusPickedUp))
	assert.True(t, RequiresRider(models.OrderStatusShopPaid))
	assert.False(t, RequiresRider(models.OrderStatusCompleted))
	assert.False(t, RequiresRider(models.OrderStatusCancelled))
}

func TestTimestampColumn(t *testing.T) {
	col, ok := TimestampColumn(models.OrderStatusPickedUp)
	assert.True(t, ok)
	assert.Equal(t, "picked_up_at", col)

	_, ok = TimestampColumn(models.OrderStatusPending)
	assert.False(t, ok)
}
