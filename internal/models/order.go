// Package models 定义数据模型
package models

import (
	"time"
)

// OrderStatus 订单状态
// 状态流转规则由 service/order 中的状态机定义，这里只是数据
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"    // 待接单
	OrderStatusAccepted  OrderStatus = "accepted"   // 已接单
	OrderStatusPreparing OrderStatus = "preparing"  // 备餐中
	OrderStatusPickedUp  OrderStatus = "picked_up"  // 骑手已取货
	OrderStatusShopPaid  OrderStatus = "shop_paid"  // 店铺已收款
	OrderStatusCompleted OrderStatus = "completed"  // 已完成
	OrderStatusCancelled OrderStatus = "cancelled"  // 已取消
)

// IsTerminal 是否为终态
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order 订单模型
type Order struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo    string `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	CustomerID int64  `gorm:"index;not null" json:"customer_id"`
	ShopID     int64  `gorm:"index;not null" json:"shop_id"`
	RiderID    *int64 `gorm:"index" json:"rider_id,omitempty"`

	Status OrderStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`

	// 金额字段
	Subtotal       float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee    float64 `gorm:"type:decimal(10,2);not null;default:0" json:"delivery_fee"`
	IsFreeDelivery bool    `gorm:"not null;default:false" json:"is_free_delivery"`
	PointsUsed     int     `gorm:"not null;default:0" json:"points_used"`
	PointsDiscount float64 `gorm:"type:decimal(10,2);not null;default:0" json:"points_discount"`
	TotalAmount    float64 `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	ShopCommission float64 `gorm:"type:decimal(10,2);not null;default:0" json:"shop_commission"`
	AdminCommission float64 `gorm:"type:decimal(10,2);not null;default:0" json:"admin_commission"`
	PointsEarned   int     `gorm:"not null;default:0" json:"points_earned"`

	// 货到付款现金交接标记
	CashCollected     bool `gorm:"not null;default:false" json:"cash_collected"`
	CashToShop        bool `gorm:"not null;default:false" json:"cash_to_shop"`
	ShopConfirmedCash bool `gorm:"not null;default:false" json:"shop_confirmed_cash"`

	// 生命周期时间戳，每个时间戳在对应状态流转时写入一次
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	PickedUpAt  *time.Time `gorm:"index" json:"picked_up_at,omitempty"`
	ShopPaidAt  *time.Time `json:"shop_paid_at,omitempty"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`
	CancelledAt *time.Time `gorm:"index" json:"cancelled_at,omitempty"`

	CancelReason *string   `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Shop     *Shop     `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	Rider    *Rider    `gorm:"foreignKey:RiderID" json:"rider,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// FreeDeliveryCost 平台承担的免配送费成本
func (o *Order) FreeDeliveryCost() float64 {
	if o.IsFreeDelivery {
		return o.DeliveryFee
	}
	return 0
}

// HasRider 订单是否已分配骑手
func (o *Order) HasRider() bool {
	return o.RiderID != nil && *o.RiderID > 0
}
