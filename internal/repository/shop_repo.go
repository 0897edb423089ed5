// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// ShopRepository 店铺仓储
type ShopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Create 创建店铺
func (r *ShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

// GetByID 根据 ID 获取店铺
func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).First(&shop, id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// UpdateCommissionRate 更新店铺佣金率
func (r *ShopRepository) UpdateCommissionRate(ctx context.Context, id int64, rate float64) error {
	return r.db.WithContext(ctx).Model(&models.Shop{}).
		Where("id = ?", id).
		Update("commission_rate", rate).Error
}

// List 获取店铺列表
func (r *ShopRepository) List(ctx context.Context, offset, limit int) ([]*models.Shop, int64, error) {
	var shops []*models.Shop
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Shop{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id ASC").Offset(offset).Limit(limit).
		Find(&shops).Error; err != nil {
		return nil, 0, err
	}

	return shops, total, nil
}
