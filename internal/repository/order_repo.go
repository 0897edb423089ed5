// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// DB 返回底层数据库句柄（用于服务层开启事务）
func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateTx 在事务中创建订单
func (r *OrderRepository) CreateTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusGuarded 带前置状态守卫的状态更新
// 只有当前状态仍为 fromStatus 时才更新，返回实际影响的行数，
// 返回 0 表示订单已被并发修改
func (r *OrderRepository) UpdateStatusGuarded(ctx context.Context, id int64, fromStatus models.OrderStatus, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// UpdateFields 更新指定字段
func (r *OrderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

// ListByCustomer 获取顾客订单列表
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.listPage(query, offset, limit)
}

// ListByShop 获取店铺订单列表
func (r *OrderRepository) ListByShop(ctx context.Context, shopID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("shop_id = ?", shopID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.listPage(query, offset, limit)
}

// ListByRider 获取骑手订单列表
func (r *OrderRepository) ListByRider(ctx context.Context, riderID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("rider_id = ?", riderID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.listPage(query, offset, limit)
}

// ListPendingForShop 获取店铺待接单列表
func (r *OrderRepository) ListPendingForShop(ctx context.Context, shopID int64, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND status = ?", shopID, models.OrderStatusPending).
		Order("id ASC").Limit(limit).
		Find(&orders).Error
	return orders, err
}

// List 获取订单列表（管理端）
func (r *OrderRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if customerID, ok := filters["customer_id"].(int64); ok && customerID > 0 {
		query = query.Where("customer_id = ?", customerID)
	}
	if shopID, ok := filters["shop_id"].(int64); ok && shopID > 0 {
		query = query.Where("shop_id = ?", shopID)
	}
	if riderID, ok := filters["rider_id"].(int64); ok && riderID > 0 {
		query = query.Where("rider_id = ?", riderID)
	}
	if status, ok := filters["status"].(models.OrderStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo, ok := filters["order_no"].(string); ok && orderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+orderNo+"%")
	}
	if startDate, ok := filters["start_date"].(time.Time); ok {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate, ok := filters["end_date"].(time.Time); ok {
		query = query.Where("created_at <= ?", endDate)
	}

	return r.listPage(query, offset, limit)
}

// ListForShopSettlement 获取窗口内按店铺结算口径的订单
// 归属口径：shop_paid_at 落在窗口内，状态已达店铺收款或完成
func (r *OrderRepository) ListForShopSettlement(ctx context.Context, start, end time.Time) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.OrderStatus{models.OrderStatusShopPaid, models.OrderStatusCompleted}).
		Where("shop_paid_at >= ? AND shop_paid_at <= ?", start, end).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// ListForRiderSettlement 获取窗口内按骑手结算口径的订单
// 归属口径：picked_up_at 落在窗口内且已分配骑手
func (r *OrderRepository) ListForRiderSettlement(ctx context.Context, start, end time.Time) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.OrderStatus{models.OrderStatusPickedUp, models.OrderStatusShopPaid, models.OrderStatusCompleted}).
		Where("rider_id IS NOT NULL").
		Where("picked_up_at >= ? AND picked_up_at <= ?", start, end).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// ListCancelledInWindow 获取窗口内取消的订单
func (r *OrderRepository) ListCancelledInWindow(ctx context.Context, start, end time.Time) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OrderStatusCancelled).
		Where("cancelled_at >= ? AND cancelled_at <= ?", start, end).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// CountByStatus 统计各状态订单数量
func (r *OrderRepository) CountByStatus(ctx context.Context, shopID int64) (map[models.OrderStatus]int64, error) {
	type Result struct {
		Status models.OrderStatus
		Count  int64
	}

	var results []Result
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, count(*) as count")

	if shopID > 0 {
		query = query.Where("shop_id = ?", shopID)
	}

	err := query.Group("status").Find(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64)
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}

// listPage 分页查询
func (r *OrderRepository) listPage(query *gorm.DB, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
