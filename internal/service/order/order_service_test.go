// Package order 订单服务单元测试
package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
	"github.com/dumeirei/delivery-market-backend/internal/service/points"
)

// setupOrderService 创建订单服务及测试依赖
func setupOrderService(t *testing.T) (*Service, *points.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Order{},
		&models.Customer{},
		&models.Shop{},
		&models.Rider{},
		&models.PointsTransaction{},
	)
	require.NoError(t, err)

	pointsSvc := points.NewService(
		db,
		repository.NewPointsRepository(db),
		repository.NewCustomerRepository(db),
		points.DefaultRules(),
		zap.NewNop(),
	)

	svc := NewService(
		db,
		repository.NewOrderRepository(db),
		repository.NewShopRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewRiderRepository(db),
		pointsSvc,
		zap.NewNop(),
	)
	svc.RegisterCompletionHook(pointsSvc)

	return svc, pointsSvc, db
}

func seedParties(t *testing.T, db *gorm.DB) (*models.Customer, *models.Shop, *models.Rider) {
	t.Helper()

	customer := &models.Customer{Phone: "13800138000", Nickname: "测试顾客", Status: models.StatusActive}
	require.NoError(t, db.Create(customer).Error)

	shop := &models.Shop{Name: "测试餐厅", CommissionRate: 0.10, Status: models.StatusActive}
	require.NoError(t, db.Create(shop).Error)

	rider := &models.Rider{Name: "测试骑手", Phone: "13900139000", Status: models.StatusActive}
	require.NoError(t, db.Create(rider).Error)

	return customer, shop, rider
}

func TestService_CreateOrder(t *testing.T) {
	svc, _, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, _ := seedParties(t, db)

	t.Run("正常下单", func(t *testing.T) {
		order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID:  customer.ID,
			ShopID:      shop.ID,
			Subtotal:    200.0,
			DeliveryFee: 10.0,
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.Equal(t, 20.0, order.ShopCommission)
		assert.Equal(t, 20.0, order.AdminCommission)
		assert.Equal(t, 210.0, order.TotalAmount)
		assert.NotEmpty(t, order.OrderNo)
	})

	t.Run("小计必须为正", func(t *testing.T) {
		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID: customer.ID,
			ShopID:     shop.ID,
			Subtotal:   0,
		})
		assert.True(t, errors.Is(err, errors.ErrOrderAmountInvalid))
	})

	t.Run("免配送费成本计入平台佣金", func(t *testing.T) {
		order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID:     customer.ID,
			ShopID:         shop.ID,
			Subtotal:       200.0,
			DeliveryFee:    5.0,
			IsFreeDelivery: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 15.0, order.AdminCommission)
		// 顾客不付配送费
		assert.Equal(t, 200.0, order.TotalAmount)
	})

	t.Run("优惠超出佣金拒绝下单", func(t *testing.T) {
		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID:     customer.ID,
			ShopID:         shop.ID,
			Subtotal:       100.0,
			DeliveryFee:    20.0,
			IsFreeDelivery: true, // 补贴 20 > 佣金 10
		})
		assert.True(t, errors.Is(err, errors.ErrDiscountExceedsMargin))
	})

	t.Run("店铺不存在", func(t *testing.T) {
		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID: customer.ID,
			ShopID:     99999,
			Subtotal:   100.0,
		})
		assert.True(t, errors.Is(err, errors.ErrShopNotFound))
	})
}

func TestService_CreateOrderWithPoints(t *testing.T) {
	svc, pointsSvc, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, _ := seedParties(t, db)

	// 预先注入积分余额
	require.NoError(t, db.Create(&models.PointsTransaction{
		CustomerID:   customer.ID,
		Type:         models.PointsTypeAdjustment,
		Points:       15,
		BalanceAfter: 15,
	}).Error)

	t.Run("积分抵扣成功并写入负向流水", func(t *testing.T) {
		order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID:  customer.ID,
			ShopID:      shop.ID,
			Subtotal:    200.0,
			DeliveryFee: 10.0,
			PointsToUse: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, order.PointsUsed)
		assert.Equal(t, 10.0, order.PointsDiscount)
		assert.Equal(t, 10.0, order.AdminCommission)
		assert.Equal(t, 200.0, order.TotalAmount)

		balance, err := pointsSvc.BalanceFor(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, balance)
	})

	t.Run("余额不足时整单回滚", func(t *testing.T) {
		var before int64
		db.Model(&models.Order{}).Count(&before)

		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			CustomerID:  customer.ID,
			ShopID:      shop.ID,
			Subtotal:    200.0,
			PointsToUse: 100,
		})
		assert.True(t, errors.Is(err, errors.ErrPointsInsufficient))

		// 订单未被创建
		var after int64
		db.Model(&models.Order{}).Count(&after)
		assert.Equal(t, before, after)

		// 余额未变
		balance, err := pointsSvc.BalanceFor(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, balance)
	})
}

func TestService_Lifecycle(t *testing.T) {
	svc, pointsSvc, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, rider := seedParties(t, db)

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID:  customer.ID,
		ShopID:      shop.ID,
		Subtotal:    350.0,
		DeliveryFee: 10.0,
	})
	require.NoError(t, err)

	t.Run("接单分配骑手", func(t *testing.T) {
		updated, err := svc.AcceptOrder(ctx, order.ID, rider.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusAccepted, updated.Status)
		require.NotNil(t, updated.RiderID)
		assert.Equal(t, rider.ID, *updated.RiderID)
		assert.NotNil(t, updated.AcceptedAt)
	})

	t.Run("备餐", func(t *testing.T) {
		updated, err := svc.StartPreparing(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPreparing, updated.Status)
		assert.NotNil(t, updated.PreparingAt)
	})

	t.Run("骑手取货", func(t *testing.T) {
		updated, err := svc.MarkPickedUp(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPickedUp, updated.Status)
		assert.NotNil(t, updated.PickedUpAt)
	})

	t.Run("取货后无法取消", func(t *testing.T) {
		_, err := svc.CancelOrder(ctx, order.ID, "不想要了")
		assert.True(t, errors.Is(err, errors.ErrOrderCannotCancel))
	})

	t.Run("现金交接", func(t *testing.T) {
		require.NoError(t, svc.CollectCash(ctx, order.ID))
		require.NoError(t, svc.HandCashToShop(ctx, order.ID))

		updated, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, updated.CashCollected)
		assert.True(t, updated.CashToShop)
	})

	t.Run("店铺确认收款", func(t *testing.T) {
		updated, err := svc.ConfirmShopPaid(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShopPaid, updated.Status)
		assert.NotNil(t, updated.ShopPaidAt)
		assert.True(t, updated.ShopConfirmedCash)
	})

	t.Run("完成并发放积分", func(t *testing.T) {
		updated, err := svc.CompleteOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, updated.Status)
		assert.NotNil(t, updated.CompletedAt)

		// floor(350/100) = 3 积分
		balance, err := pointsSvc.BalanceFor(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, balance)
	})

	t.Run("终态不再允许流转", func(t *testing.T) {
		_, err := svc.Transition(ctx, order.ID, models.OrderStatusPending)
		assert.True(t, errors.Is(err, errors.ErrOrderIllegalTransition))
	})
}

func TestService_CancelOrder(t *testing.T) {
	svc, pointsSvc, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, _ := seedParties(t, db)

	// 注入积分
	require.NoError(t, db.Create(&models.PointsTransaction{
		CustomerID:   customer.ID,
		Type:         models.PointsTypeAdjustment,
		Points:       10,
		BalanceAfter: 10,
	}).Error)

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID:  customer.ID,
		ShopID:      shop.ID,
		Subtotal:    200.0,
		PointsToUse: 10,
	})
	require.NoError(t, err)

	balance, _ := pointsSvc.BalanceFor(ctx, customer.ID)
	assert.Equal(t, 0, balance)

	t.Run("取消回补积分", func(t *testing.T) {
		cancelled, err := svc.CancelOrder(ctx, order.ID, "地址填错了")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
		require.NotNil(t, cancelled.CancelReason)
		assert.Equal(t, "地址填错了", *cancelled.CancelReason)

		balance, err := pointsSvc.BalanceFor(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, balance)
	})

	t.Run("重复取消失败", func(t *testing.T) {
		_, err := svc.CancelOrder(ctx, order.ID, "再取消一次")
		assert.True(t, errors.Is(err, errors.ErrOrderCannotCancel))
	})
}

func TestService_TransitionGuards(t *testing.T) {
	svc, _, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, _ := seedParties(t, db)

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID: customer.ID,
		ShopID:     shop.ID,
		Subtotal:   100.0,
	})
	require.NoError(t, err)

	t.Run("跳级流转被拒绝", func(t *testing.T) {
		_, err := svc.Transition(ctx, order.ID, models.OrderStatusPickedUp)
		assert.True(t, errors.Is(err, errors.ErrOrderIllegalTransition))
	})

	t.Run("未分配骑手时要求骑手的状态被拒绝", func(t *testing.T) {
		_, err := svc.Transition(ctx, order.ID, models.OrderStatusAccepted)
		assert.True(t, errors.Is(err, errors.ErrOrderRiderRequired))
	})

	t.Run("并发修改触发冲突错误", func(t *testing.T) {
		// 模拟另一请求抢先改掉状态
		require.NoError(t, db.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", models.OrderStatusCancelled).Error)

		_, err := svc.CancelOrder(ctx, order.ID, "并发取消")
		assert.Error(t, err)
	})
}

// referralHookRecorder 记录完成回调是否被触发
type referralHookRecorder struct {
	called int
}

func (h *referralHookRecorder) OnOrderCompleted(_ context.Context, _ *models.Order) error {
	h.called++
	return nil
}

func TestService_CompletionHooks(t *testing.T) {
	svc, _, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, rider := seedParties(t, db)

	recorder := &referralHookRecorder{}
	svc.RegisterCompletionHook(recorder)

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID:  customer.ID,
		ShopID:      shop.ID,
		Subtotal:    100.0,
		DeliveryFee: 5.0,
	})
	require.NoError(t, err)

	_, err = svc.AcceptOrder(ctx, order.ID, rider.ID)
	require.NoError(t, err)
	_, err = svc.StartPreparing(ctx, order.ID)
	require.NoError(t, err)
	_, err = svc.MarkPickedUp(ctx, order.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmShopPaid(ctx, order.ID)
	require.NoError(t, err)
	_, err = svc.CompleteOrder(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.called)
}

func TestService_PreviewOrder(t *testing.T) {
	svc, _, db := setupOrderService(t)
	ctx := context.Background()
	customer, shop, _ := seedParties(t, db)

	require.NoError(t, db.Create(&models.PointsTransaction{
		CustomerID:   customer.ID,
		Type:         models.PointsTypeEarned,
		Points:       30,
		BalanceAfter: 30,
	}).Error)

	t.Run("返回余额与抵扣上限", func(t *testing.T) {
		preview, err := svc.PreviewOrder(ctx, &PreviewOrderRequest{
			CustomerID:  customer.ID,
			ShopID:      shop.ID,
			Subtotal:    200.0,
			DeliveryFee: 10.0,
		})
		require.NoError(t, err)

		assert.Equal(t, 20.0, preview.ShopCommission)
		assert.Equal(t, 30, preview.PointsBalance)
		// 余额 30 分但佣金只够抵 20
		assert.Equal(t, 20, preview.MaxRedeemablePoints)
		assert.Equal(t, 2, preview.PointsEarned)
		assert.Equal(t, 210.0, preview.TotalAmount)
	})

	t.Run("免配送费压缩抵扣上限", func(t *testing.T) {
		preview, err := svc.PreviewOrder(ctx, &PreviewOrderRequest{
			CustomerID:     customer.ID,
			ShopID:         shop.ID,
			Subtotal:       200.0,
			DeliveryFee:    10.0,
			IsFreeDelivery: true,
		})
		require.NoError(t, err)

		// 毛利 20 − 免配送费 10 = 10
		assert.Equal(t, 10, preview.MaxRedeemablePoints)
		assert.Equal(t, 200.0, preview.TotalAmount)
	})

	t.Run("金额无效", func(t *testing.T) {
		_, err := svc.PreviewOrder(ctx, &PreviewOrderRequest{
			CustomerID: customer.ID,
			ShopID:     shop.ID,
			Subtotal:   0,
		})
		assert.True(t, errors.Is(err, errors.ErrOrderAmountInvalid))
	})
}
