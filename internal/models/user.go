package models

import "time"

// 通用启用状态
const (
	StatusDisabled = 0 // 禁用
	StatusActive   = 1 // 启用
)

// Customer 顾客
type Customer struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Nickname   string    `gorm:"type:varchar(50)" json:"nickname"`
	ReferrerID *int64    `gorm:"index" json:"referrer_id,omitempty"`
	Status     int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Referrer *Customer `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
}

// TableName 表名
func (Customer) TableName() string {
	return "customers"
}

// Shop 店铺
type Shop struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone          string    `gorm:"type:varchar(20)" json:"phone"`
	CommissionRate float64   `gorm:"type:decimal(5,4);not null;default:0.10" json:"commission_rate"`
	Status         int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Shop) TableName() string {
	return "shops"
}

// Rider 骑手
type Rider struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Rider) TableName() string {
	return "riders"
}

// Admin 平台管理员
type Admin struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Nickname     string     `gorm:"type:varchar(50)" json:"nickname"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Admin) TableName() string {
	return "admins"
}
