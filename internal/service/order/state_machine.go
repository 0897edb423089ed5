// Package order 提供订单生命周期服务
package order

import (
	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// transitionTable 订单状态流转表
// cancelled 只能从 pending/accepted/preparing 到达：骑手取货后货已在途，
// 结构上不允许取消
var transitionTable = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusAccepted, models.OrderStatusCancelled},
	models.OrderStatusAccepted:  {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusPickedUp, models.OrderStatusCancelled},
	models.OrderStatusPickedUp:  {models.OrderStatusShopPaid},
	models.OrderStatusShopPaid:  {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

// timestampColumn 每个目标状态对应的时间戳字段
var timestampColumn = map[models.OrderStatus]string{
	models.OrderStatusAccepted:  "accepted_at",
	models.OrderStatusPreparing: "preparing_at",
	models.OrderStatusPickedUp:  "picked_up_at",
	models.OrderStatusShopPaid:  "shop_paid_at",
	models.OrderStatusCompleted: "completed_at",
	models.OrderStatusCancelled: "cancelled_at",
}

// CanTransitionTo 当前状态是否允许流转到目标状态
func CanTransitionTo(current, target models.OrderStatus) bool {
	for _, allowed := range transitionTable[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions 当前状态允许的全部目标状态
func AllowedTransitions(current models.OrderStatus) []models.OrderStatus {
	allowed := transitionTable[current]
	out := make([]models.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// RequiresRider 该状态是否要求订单已分配骑手
// 除 pending 外的所有非终态都要求骑手在场
func RequiresRider(status models.OrderStatus) bool {
	switch status {
	case models.OrderStatusAccepted, models.OrderStatusPreparing,
		models.OrderStatusPickedUp, models.OrderStatusShopPaid:
		return true
	}
	return false
}

// TimestampColumn 目标状态流转时要写入的时间戳字段名
func TimestampColumn(target models.OrderStatus) (string, bool) {
	col, ok := timestampColumn[target]
	return col, ok
}
