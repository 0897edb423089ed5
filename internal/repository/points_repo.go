// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// PointsRepository 积分流水仓储，流水只增不改
type PointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository 创建积分仓储
func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// DB 返回底层数据库句柄（用于服务层开启事务）
func (r *PointsRepository) DB() *gorm.DB {
	return r.db
}

// CreateTx 在事务中追加一条流水
func (r *PointsRepository) CreateTx(ctx context.Context, tx *gorm.DB, txn *models.PointsTransaction) error {
	return tx.WithContext(ctx).Create(txn).Error
}

// SumBalanceTx 在事务中计算客户余额（全部流水求和）
func (r *PointsRepository) SumBalanceTx(ctx context.Context, tx *gorm.DB, customerID int64) (int, error) {
	var balance int
	err := tx.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&balance).Error
	return balance, err
}

// SumBalance 计算客户余额
func (r *PointsRepository) SumBalance(ctx context.Context, customerID int64) (int, error) {
	return r.SumBalanceTx(ctx, r.db, customerID)
}

// ListByCustomer 获取客户积分流水（按时间倒序）
func (r *PointsRepository) ListByCustomer(ctx context.Context, customerID int64, offset, limit int) ([]*models.PointsTransaction, int64, error) {
	var txns []*models.PointsTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("customer_id = ?", customerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// HasReferralBonusTx 是否已为该被邀请客户发放过邀请奖励
func (r *PointsRepository) HasReferralBonusTx(ctx context.Context, tx *gorm.DB, refCustomerID int64) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("type = ? AND ref_customer_id = ?", models.PointsTypeReferral, refCustomerID).
		Count(&count).Error
	return count > 0, err
}

// HasOrderEarnTx 订单是否已发放过消费积分
func (r *PointsRepository) HasOrderEarnTx(ctx context.Context, tx *gorm.DB, orderID int64) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("type = ? AND order_id = ?", models.PointsTypeEarned, orderID).
		Count(&count).Error
	return count > 0, err
}

// SumRedeemedInWindow 统计窗口内抵扣的积分面值（windowSum 为正数）
func (r *PointsRepository) SumRedeemedInWindow(ctx context.Context, orderIDs []int64) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	var sum int
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("type = ? AND order_id IN ?", models.PointsTypeRedeemed, orderIDs).
		Select("COALESCE(-SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}
