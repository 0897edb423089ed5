// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// AdsRepository 广告仓储
type AdsRepository struct {
	db *gorm.DB
}

// NewAdsRepository 创建广告仓储
func NewAdsRepository(db *gorm.DB) *AdsRepository {
	return &AdsRepository{db: db}
}

// Create 创建广告
func (r *AdsRepository) Create(ctx context.Context, ad *models.Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

// GetByID 根据 ID 获取广告
func (r *AdsRepository) GetByID(ctx context.Context, id int64) (*models.Ad, error) {
	var ad models.Ad
	err := r.db.WithContext(ctx).First(&ad, id).Error
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// UpdateStatus 更新广告状态
func (r *AdsRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Ad{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListByShop 获取店铺广告列表
func (r *AdsRepository) ListByShop(ctx context.Context, shopID int64, offset, limit int) ([]*models.Ad, int64, error) {
	var ads []*models.Ad
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Ad{}).Where("shop_id = ?", shopID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).
		Find(&ads).Error; err != nil {
		return nil, 0, err
	}

	return ads, total, nil
}

// ListActiveOverlapping 获取与时间窗口有交集的投放中广告
func (r *AdsRepository) ListActiveOverlapping(ctx context.Context, start, end time.Time) ([]*models.Ad, error) {
	var ads []*models.Ad
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AdStatusActive).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("id ASC").
		Find(&ads).Error
	return ads, err
}
