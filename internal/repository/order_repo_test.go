// Package repository 订单仓储单元测试
package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// setupOrderTestDB 创建订单测试数据库
func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Order{},
		&models.Customer{},
		&models.Shop{},
		&models.Rider{},
	)
	require.NoError(t, err)

	return db
}

func createTestShop(t *testing.T, db *gorm.DB, name string) *models.Shop {
	t.Helper()

	shop := &models.Shop{
		Name:           name,
		CommissionRate: 0.10,
		Status:         models.StatusActive,
	}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

func createTestCustomer(t *testing.T, db *gorm.DB, phone string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Phone:    phone,
		Nickname: "测试顾客",
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func createTestOrder(t *testing.T, db *gorm.DB, customerID, shopID int64, orderNo string, status models.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNo:     orderNo,
		CustomerID:  customerID,
		ShopID:      shopID,
		Subtotal:    100.0,
		DeliveryFee: 10.0,
		TotalAmount: 110.0,
		Status:      status,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderRepository_Create(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138000")

	order := &models.Order{
		OrderNo:     "DO20260101001",
		CustomerID:  customer.ID,
		ShopID:      shop.ID,
		Subtotal:    200.0,
		DeliveryFee: 15.0,
		TotalAmount: 215.0,
		Status:      models.OrderStatusPending,
	}

	err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)

	// 验证订单已创建
	var found models.Order
	db.First(&found, order.ID)
	assert.Equal(t, "DO20260101001", found.OrderNo)
	assert.Equal(t, models.OrderStatusPending, found.Status)
}

func TestOrderRepository_GetByOrderNo(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138001")
	order := createTestOrder(t, db, customer.ID, shop.ID, "DO001", models.OrderStatusPending)

	t.Run("根据订单号获取订单", func(t *testing.T) {
		found, err := repo.GetByOrderNo(ctx, order.OrderNo)
		require.NoError(t, err)
		assert.Equal(t, order.ID, found.ID)
	})

	t.Run("获取不存在的订单号", func(t *testing.T) {
		_, err := repo.GetByOrderNo(ctx, "INVALID_NO")
		assert.Error(t, err)
	})
}

func TestOrderRepository_UpdateStatusGuarded(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138002")
	order := createTestOrder(t, db, customer.ID, shop.ID, "DO002", models.OrderStatusPending)

	t.Run("前置状态匹配时更新成功", func(t *testing.T) {
		now := time.Now()
		affected, err := repo.UpdateStatusGuarded(ctx, order.ID, models.OrderStatusPending, map[string]interface{}{
			"status":      models.OrderStatusAccepted,
			"accepted_at": now,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		var found models.Order
		db.First(&found, order.ID)
		assert.Equal(t, models.OrderStatusAccepted, found.Status)
		assert.NotNil(t, found.AcceptedAt)
	})

	t.Run("前置状态不匹配时不更新", func(t *testing.T) {
		affected, err := repo.UpdateStatusGuarded(ctx, order.ID, models.OrderStatusPending, map[string]interface{}{
			"status": models.OrderStatusCancelled,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)

		var found models.Order
		db.First(&found, order.ID)
		assert.Equal(t, models.OrderStatusAccepted, found.Status)
	})
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138003")

	for i := 0; i < 5; i++ {
		createTestOrder(t, db, customer.ID, shop.ID, fmt.Sprintf("DO_CUST_%d", i), models.OrderStatusPending)
	}

	t.Run("获取顾客订单列表", func(t *testing.T) {
		orders, total, err := repo.ListByCustomer(ctx, customer.ID, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, orders, 5)
	})

	t.Run("分页获取", func(t *testing.T) {
		orders, total, err := repo.ListByCustomer(ctx, customer.ID, 0, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, orders, 2)
	})

	t.Run("按状态筛选", func(t *testing.T) {
		status := models.OrderStatusCompleted
		orders, total, err := repo.ListByCustomer(ctx, customer.ID, 0, 10, &status)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, orders)
	})
}

func TestOrderRepository_ListForShopSettlement(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138004")

	windowStart := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC)

	// 窗口内已收款
	inWindow := createTestOrder(t, db, customer.ID, shop.ID, "DO_WIN_1", models.OrderStatusShopPaid)
	paidAt := windowStart.Add(24 * time.Hour)
	db.Model(inWindow).Update("shop_paid_at", paidAt)

	// 窗口内已完成
	inWindowDone := createTestOrder(t, db, customer.ID, shop.ID, "DO_WIN_2", models.OrderStatusCompleted)
	db.Model(inWindowDone).Update("shop_paid_at", windowEnd.Add(-time.Hour))

	// 窗口外
	outside := createTestOrder(t, db, customer.ID, shop.ID, "DO_OUT", models.OrderStatusShopPaid)
	db.Model(outside).Update("shop_paid_at", windowEnd.Add(time.Hour))

	// 窗口内但未收款
	createTestOrder(t, db, customer.ID, shop.ID, "DO_PEND", models.OrderStatusPreparing)

	orders, err := repo.ListForShopSettlement(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "DO_WIN_1", orders[0].OrderNo)
	assert.Equal(t, "DO_WIN_2", orders[1].OrderNo)
}

func TestOrderRepository_ListForRiderSettlement(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138005")

	rider := &models.Rider{Name: "测试骑手", Phone: "13900139000", Status: models.StatusActive}
	require.NoError(t, db.Create(rider).Error)

	windowStart := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC)

	// 窗口内取货
	withRider := createTestOrder(t, db, customer.ID, shop.ID, "DO_RIDER_1", models.OrderStatusCompleted)
	db.Model(withRider).Updates(map[string]interface{}{
		"rider_id":     rider.ID,
		"picked_up_at": windowStart.Add(2 * time.Hour),
	})

	// 窗口内但无骑手
	noRider := createTestOrder(t, db, customer.ID, shop.ID, "DO_RIDER_2", models.OrderStatusShopPaid)
	db.Model(noRider).Update("shop_paid_at", windowStart.Add(3*time.Hour))

	orders, err := repo.ListForRiderSettlement(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "DO_RIDER_1", orders[0].OrderNo)
}

func TestOrderRepository_CountByStatus(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	shop := createTestShop(t, db, "测试餐厅")
	customer := createTestCustomer(t, db, "13800138006")

	for i := 0; i < 3; i++ {
		createTestOrder(t, db, customer.ID, shop.ID, fmt.Sprintf("DO_PEND_%d", i), models.OrderStatusPending)
	}
	for i := 0; i < 2; i++ {
		createTestOrder(t, db, customer.ID, shop.ID, fmt.Sprintf("DO_COMP_%d", i), models.OrderStatusCompleted)
	}

	counts, err := repo.CountByStatus(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[models.OrderStatusPending])
	assert.Equal(t, int64(2), counts[models.OrderStatusCompleted])
}
