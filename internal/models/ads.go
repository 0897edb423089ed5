package models

import "time"

// AdStatus 广告状态
const (
	AdStatusActive = 1 // 投放中
	AdStatusPaused = 0 // 已暂停
)

// Ad 店铺广告位，按天计费
type Ad struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID    int64     `gorm:"index;not null" json:"shop_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	DailyCost float64   `gorm:"type:decimal(10,2);not null" json:"daily_cost"`
	StartDate time.Time `gorm:"index;not null" json:"start_date"`
	EndDate   time.Time `gorm:"index;not null" json:"end_date"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Shop *Shop `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
}

// TableName 表名
func (Ad) TableName() string {
	return "ads"
}
