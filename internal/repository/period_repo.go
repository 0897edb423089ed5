// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// PeriodRepository 周结算周期仓储
type PeriodRepository struct {
	db *gorm.DB
}

// NewPeriodRepository 创建周期仓储
func NewPeriodRepository(db *gorm.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Create 创建周期
func (r *PeriodRepository) Create(ctx context.Context, period *models.WeeklyPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

// CreateTx 在事务中创建周期
func (r *PeriodRepository) CreateTx(ctx context.Context, tx *gorm.DB, period *models.WeeklyPeriod) error {
	return tx.WithContext(ctx).Create(period).Error
}

// GetByID 根据 ID 获取周期
func (r *PeriodRepository) GetByID(ctx context.Context, id int64) (*models.WeeklyPeriod, error) {
	var period models.WeeklyPeriod
	err := r.db.WithContext(ctx).First(&period, id).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// GetActive 获取当前进行中的周期
func (r *PeriodRepository) GetActive(ctx context.Context) (*models.WeeklyPeriod, error) {
	var period models.WeeklyPeriod
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PeriodStatusActive).
		Order("start_date DESC").
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// GetByStartDate 根据起始时间获取周期
func (r *PeriodRepository) GetByStartDate(ctx context.Context, start time.Time) (*models.WeeklyPeriod, error) {
	var period models.WeeklyPeriod
	err := r.db.WithContext(ctx).Where("start_date = ?", start).First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// CloseGuarded 带状态守卫的关账更新
// 只有周期仍为 active 才会置为 closed，返回影响行数，0 表示已被并发关账
func (r *PeriodRepository) CloseGuarded(ctx context.Context, tx *gorm.DB, id int64, closedAt time.Time) (int64, error) {
	result := tx.WithContext(ctx).Model(&models.WeeklyPeriod{}).
		Where("id = ? AND status = ?", id, models.PeriodStatusActive).
		Updates(map[string]interface{}{
			"status":    models.PeriodStatusClosed,
			"closed_at": closedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkSettled 周期下全部结算单结清后置为 settled
func (r *PeriodRepository) MarkSettled(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.WeeklyPeriod{}).
		Where("id = ? AND status = ?", id, models.PeriodStatusClosed).
		Update("status", models.PeriodStatusSettled).Error
}

// List 获取周期列表
func (r *PeriodRepository) List(ctx context.Context, offset, limit int, status string) ([]*models.WeeklyPeriod, int64, error) {
	var periods []*models.WeeklyPeriod
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WeeklyPeriod{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("start_date DESC").Offset(offset).Limit(limit).
		Find(&periods).Error; err != nil {
		return nil, 0, err
	}

	return periods, total, nil
}
