package models

import "time"

// PointsTransactionType 积分流水类型
const (
	PointsTypeEarned     = "earned"     // 消费获取
	PointsTypeRedeemed   = "redeemed"   // 抵扣消耗
	PointsTypeReferral   = "referral"   // 邀请奖励
	PointsTypeAdjustment = "adjustment" // 人工调整
)

// PointsTransaction 积分流水，仅追加，创建后不再修改或删除
// 客户余额始终等于其全部流水按创建顺序求和
type PointsTransaction struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID    int64   `gorm:"index;not null" json:"customer_id"`
	OrderID       *int64  `gorm:"index" json:"order_id,omitempty"`
	RefCustomerID *int64  `gorm:"index" json:"ref_customer_id,omitempty"`
	Type          string  `gorm:"type:varchar(20);index;not null" json:"type"`
	Points        int     `gorm:"not null" json:"points"`
	BalanceAfter  int     `gorm:"not null" json:"balance_after"`
	Description   *string `gorm:"type:varchar(255)" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PointsTransaction) TableName() string {
	return "points_transactions"
}
