// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// SettlementRepository 结算单仓储
type SettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算单仓储
func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// CreateShopSettlementsTx 在事务中批量创建店铺结算单
func (r *SettlementRepository) CreateShopSettlementsTx(ctx context.Context, tx *gorm.DB, settlements []*models.ShopSettlement) error {
	if len(settlements) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&settlements).Error
}

// CreateRiderSettlementsTx 在事务中批量创建骑手结算单
func (r *SettlementRepository) CreateRiderSettlementsTx(ctx context.Context, tx *gorm.DB, settlements []*models.RiderSettlement) error {
	if len(settlements) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&settlements).Error
}

// ExistsForPeriod 周期是否已生成过结算单
func (r *SettlementRepository) ExistsForPeriod(ctx context.Context, periodID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopSettlement{}).
		Where("period_id = ?", periodID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).Model(&models.RiderSettlement{}).
		Where("period_id = ?", periodID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetShopSettlement 获取店铺结算单
func (r *SettlementRepository) GetShopSettlement(ctx context.Context, id int64) (*models.ShopSettlement, error) {
	var settlement models.ShopSettlement
	err := r.db.WithContext(ctx).First(&settlement, id).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetRiderSettlement 获取骑手结算单
func (r *SettlementRepository) GetRiderSettlement(ctx context.Context, id int64) (*models.RiderSettlement, error) {
	var settlement models.RiderSettlement
	err := r.db.WithContext(ctx).First(&settlement, id).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetShopSettlementByPeriod 获取店铺在指定周期的结算单
func (r *SettlementRepository) GetShopSettlementByPeriod(ctx context.Context, shopID, periodID int64) (*models.ShopSettlement, error) {
	var settlement models.ShopSettlement
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND period_id = ?", shopID, periodID).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetRiderSettlementByPeriod 获取骑手在指定周期的结算单
func (r *SettlementRepository) GetRiderSettlementByPeriod(ctx context.Context, riderID, periodID int64) (*models.RiderSettlement, error) {
	var settlement models.RiderSettlement
	err := r.db.WithContext(ctx).
		Where("rider_id = ? AND period_id = ?", riderID, periodID).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// ListShopSettlements 获取周期下的店铺结算单列表
func (r *SettlementRepository) ListShopSettlements(ctx context.Context, periodID int64, status string, offset, limit int) ([]*models.ShopSettlement, int64, error) {
	var settlements []*models.ShopSettlement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ShopSettlement{}).Where("period_id = ?", periodID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("shop_id ASC").Offset(offset).Limit(limit).
		Find(&settlements).Error; err != nil {
		return nil, 0, err
	}

	return settlements, total, nil
}

// ListRiderSettlements 获取周期下的骑手结算单列表
func (r *SettlementRepository) ListRiderSettlements(ctx context.Context, periodID int64, status string, offset, limit int) ([]*models.RiderSettlement, int64, error) {
	var settlements []*models.RiderSettlement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RiderSettlement{}).Where("period_id = ?", periodID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("rider_id ASC").Offset(offset).Limit(limit).
		Find(&settlements).Error; err != nil {
		return nil, 0, err
	}

	return settlements, total, nil
}

// MarkShopSettledGuarded 店铺结算单标记结清，仅当仍为 pending
func (r *SettlementRepository) MarkShopSettledGuarded(ctx context.Context, id int64, settledAt time.Time, notes *string) (int64, error) {
	fields := map[string]interface{}{
		"status":     models.SettlementStatusSettled,
		"settled_at": settledAt,
	}
	if notes != nil {
		fields["notes"] = *notes
	}
	result := r.db.WithContext(ctx).Model(&models.ShopSettlement{}).
		Where("id = ? AND status = ?", id, models.SettlementStatusPending).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// MarkRiderSettledGuarded 骑手结算单标记结清，仅当仍为 pending
func (r *SettlementRepository) MarkRiderSettledGuarded(ctx context.Context, id int64, settledAt time.Time, notes *string) (int64, error) {
	fields := map[string]interface{}{
		"status":     models.SettlementStatusSettled,
		"settled_at": settledAt,
	}
	if notes != nil {
		fields["notes"] = *notes
	}
	result := r.db.WithContext(ctx).Model(&models.RiderSettlement{}).
		Where("id = ? AND status = ?", id, models.SettlementStatusPending).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// CountPendingByPeriod 统计周期下未结清的结算单数量
func (r *SettlementRepository) CountPendingByPeriod(ctx context.Context, periodID int64) (int64, error) {
	var shopCount, riderCount int64

	err := r.db.WithContext(ctx).Model(&models.ShopSettlement{}).
		Where("period_id = ? AND status = ?", periodID, models.SettlementStatusPending).
		Count(&shopCount).Error
	if err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).Model(&models.RiderSettlement{}).
		Where("period_id = ? AND status = ?", periodID, models.SettlementStatusPending).
		Count(&riderCount).Error
	if err != nil {
		return 0, err
	}

	return shopCount + riderCount, nil
}
