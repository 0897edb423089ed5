package models

import "time"

// PeriodStatus 结算周期状态
const (
	PeriodStatusActive  = "active"  // 进行中
	PeriodStatusClosed  = "closed"  // 已关账
	PeriodStatusSettled = "settled" // 已全部结清
)

// WeeklyPeriod 周结算周期
// 固定为周六 00:00 至周五 23:59:59（UTC+2，无夏令时），周期首尾相接
type WeeklyPeriod struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	StartDate time.Time  `gorm:"index;not null" json:"start_date"`
	EndDate   time.Time  `gorm:"index;not null" json:"end_date"`
	Status    string     `gorm:"type:varchar(20);index;not null;default:'active'" json:"status"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (WeeklyPeriod) TableName() string {
	return "weekly_periods"
}

// Contains 时间点是否落在周期窗口内
func (p *WeeklyPeriod) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// SettlementStatus 结算单状态
const (
	SettlementStatusPending = "pending" // 待打款
	SettlementStatusSettled = "settled" // 已结清
)

// ShopSettlement 店铺周结算单，每个 (店铺, 周期) 一条
type ShopSettlement struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID   int64 `gorm:"index:idx_shop_period,unique;not null" json:"shop_id"`
	PeriodID int64 `gorm:"index:idx_shop_period,unique;not null" json:"period_id"`

	TotalOrders     int     `gorm:"not null;default:0" json:"total_orders"`
	SettledOrders   int     `gorm:"not null;default:0" json:"settled_orders"`
	CancelledOrders int     `gorm:"not null;default:0" json:"cancelled_orders"`
	GrossSales      float64 `gorm:"type:decimal(12,2);not null;default:0" json:"gross_sales"`
	TotalCommission float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_commission"`
	PointsDiscounts float64 `gorm:"type:decimal(12,2);not null;default:0" json:"points_discounts"`
	FreeDeliveryCost float64 `gorm:"type:decimal(12,2);not null;default:0" json:"free_delivery_cost"`
	AdsCost         float64 `gorm:"type:decimal(12,2);not null;default:0" json:"ads_cost"`
	NetAmount       float64 `gorm:"type:decimal(12,2);not null;default:0" json:"net_amount"`

	Status    string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
	Notes     *string    `gorm:"type:varchar(255)" json:"notes,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Shop   *Shop         `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	Period *WeeklyPeriod `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
}

// TableName 表名
func (ShopSettlement) TableName() string {
	return "shop_settlements"
}

// RiderSettlement 骑手周结算单，每个 (骑手, 周期) 一条
type RiderSettlement struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RiderID  int64 `gorm:"index:idx_rider_period,unique;not null" json:"rider_id"`
	PeriodID int64 `gorm:"index:idx_rider_period,unique;not null" json:"period_id"`

	DeliveryCount     int     `gorm:"not null;default:0" json:"delivery_count"`
	TotalDeliveryFees float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_delivery_fees"`
	NetPayout         float64 `gorm:"type:decimal(12,2);not null;default:0" json:"net_payout"`

	Status    string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
	Notes     *string    `gorm:"type:varchar(255)" json:"notes,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Rider  *Rider        `gorm:"foreignKey:RiderID" json:"rider,omitempty"`
	Period *WeeklyPeriod `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
}

// TableName 表名
func (RiderSettlement) TableName() string {
	return "rider_settlements"
}

// PeriodSummary 周期财务汇总（平台视角）
type PeriodSummary struct {
	PeriodID         int64   `json:"period_id"`
	TotalOrders      int     `json:"total_orders"`
	SettledOrders    int     `json:"settled_orders"`
	CancelledOrders  int     `json:"cancelled_orders"`
	GrossSales       float64 `json:"gross_sales"`
	TotalCommission  float64 `json:"total_commission"`
	PointsDiscounts  float64 `json:"points_discounts"`
	FreeDeliveryCost float64 `json:"free_delivery_cost"`
	AdsRevenue       float64 `json:"ads_revenue"`
	AdminCommission  float64 `json:"admin_commission"`
	ShopPayable      float64 `json:"shop_payable"`
	RiderPayable     float64 `json:"rider_payable"`
}
