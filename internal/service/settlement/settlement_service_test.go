package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/common/config"
	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// setupSettlementService 创建结算服务及其依赖
func setupSettlementService(t *testing.T) (*Service, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.WeeklyPeriod{},
		&models.ShopSettlement{},
		&models.RiderSettlement{},
		&models.Order{},
		&models.Ad{},
		&models.Shop{},
		&models.Rider{},
		&models.Customer{},
	)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.SettlementConfig{
		TimezoneOffsetHours: 2,
		CloseLockTTL:        30,
	}

	svc := NewService(
		db,
		repository.NewPeriodRepository(db),
		repository.NewSettlementRepository(db),
		repository.NewOrderRepository(db),
		repository.NewAdsRepository(db),
		client,
		cfg,
		zap.NewNop(),
	)
	return svc, db, mr
}

// seedActivePeriod 写入一个进行中的周期（2026-01-03 周六起）
func seedActivePeriod(t *testing.T, db *gorm.DB) *models.WeeklyPeriod {
	t.Helper()

	start := time.Date(2026, 1, 3, 0, 0, 0, 0, testLoc)
	period := &models.WeeklyPeriod{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 7).Add(-time.Second),
		Status:    models.PeriodStatusActive,
	}
	require.NoError(t, db.Create(period).Error)
	return period
}

// seedSettledOrder 写入一笔窗口内已到店铺收款的订单
func seedSettledOrder(t *testing.T, db *gorm.DB, orderNo string, shopID int64, riderID int64, subtotal, commission, fee float64, paidAt time.Time) *models.Order {
	t.Helper()

	pickedUp := paidAt.Add(-30 * time.Minute)
	order := &models.Order{
		OrderNo:        orderNo,
		CustomerID:     1,
		ShopID:         shopID,
		RiderID:        &riderID,
		Status:         models.OrderStatusCompleted,
		Subtotal:       subtotal,
		ShopCommission: commission,
		DeliveryFee:    fee,
		TotalAmount:    subtotal + fee,
		PickedUpAt:     &pickedUp,
		ShopPaidAt:     &paidAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestService_EnsureActivePeriod(t *testing.T) {
	svc, db, _ := setupSettlementService(t)
	ctx := context.Background()

	t.Run("无周期时自动创建", func(t *testing.T) {
		period, err := svc.EnsureActivePeriod(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.PeriodStatusActive, period.Status)

		// 窗口边界与当前时间匹配
		start, end := WeekPeriodFor(time.Now(), testLoc)
		assert.True(t, period.StartDate.Equal(start))
		assert.True(t, period.EndDate.Equal(end))
	})

	t.Run("已有进行中周期时直接返回", func(t *testing.T) {
		first, err := svc.EnsureActivePeriod(ctx)
		require.NoError(t, err)

		second, err := svc.EnsureActivePeriod(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		var count int64
		db.Model(&models.WeeklyPeriod{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestService_CloseCurrentPeriod(t *testing.T) {
	svc, db, _ := setupSettlementService(t)
	ctx := context.Background()

	period := seedActivePeriod(t, db)
	paidAt := period.StartDate.Add(2 * 24 * time.Hour)

	seedSettledOrder(t, db, "DO20260105001", 1, 1, 100.0, 10.0, 10.0, paidAt)
	seedSettledOrder(t, db, "DO20260105002", 1, 2, 200.0, 20.0, 15.0, paidAt.Add(time.Hour))
	seedSettledOrder(t, db, "DO20260105003", 2, 1, 80.0, 8.0, 10.0, paidAt.Add(2*time.Hour))

	// 窗口内取消的订单只计入单量
	cancelledAt := paidAt.Add(3 * time.Hour)
	require.NoError(t, db.Create(&models.Order{
		OrderNo:     "DO20260105004",
		CustomerID:  1,
		ShopID:      1,
		Status:      models.OrderStatusCancelled,
		Subtotal:    50.0,
		TotalAmount: 50.0,
		CancelledAt: &cancelledAt,
	}).Error)

	require.NoError(t, db.Create(&models.Ad{
		ShopID:    1,
		Name:      "首页推荐位",
		DailyCost: 5.0,
		StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, testLoc),
		EndDate:   time.Date(2026, 1, 12, 0, 0, 0, 0, testLoc),
		Status:    models.AdStatusActive,
	}).Error)

	closed, err := svc.CloseCurrentPeriod(ctx)
	require.NoError(t, err)

	t.Run("周期进入已关账状态", func(t *testing.T) {
		assert.Equal(t, period.ID, closed.ID)
		assert.Equal(t, models.PeriodStatusClosed, closed.Status)
		assert.NotNil(t, closed.ClosedAt)
	})

	t.Run("生成店铺结算单", func(t *testing.T) {
		var settlements []*models.ShopSettlement
		require.NoError(t, db.Where("period_id = ?", period.ID).Order("shop_id ASC").Find(&settlements).Error)
		require.Len(t, settlements, 2)

		assert.Equal(t, 3, settlements[0].TotalOrders)
		assert.Equal(t, 2, settlements[0].SettledOrders)
		assert.Equal(t, 1, settlements[0].CancelledOrders)
		assert.Equal(t, 300.0, settlements[0].GrossSales)
		assert.Equal(t, 30.0, settlements[0].TotalCommission)
		assert.Equal(t, 25.0, settlements[0].AdsCost)
		assert.Equal(t, 270.0, settlements[0].NetAmount)

		assert.Equal(t, 72.0, settlements[1].NetAmount)
	})

	t.Run("生成骑手结算单", func(t *testing.T) {
		var settlements []*models.RiderSettlement
		require.NoError(t, db.Where("period_id = ?", period.ID).Order("rider_id ASC").Find(&settlements).Error)
		require.Len(t, settlements, 2)

		assert.Equal(t, 2, settlements[0].DeliveryCount)
		assert.Equal(t, 20.0, settlements[0].NetPayout)
		assert.Equal(t, 15.0, settlements[1].NetPayout)
	})

	t.Run("自动创建首尾相接的下一周期", func(t *testing.T) {
		var next models.WeeklyPeriod
		require.NoError(t, db.Where("status = ?", models.PeriodStatusActive).First(&next).Error)
		assert.True(t, next.StartDate.Equal(period.EndDate.Add(time.Second)))
		assert.Equal(t, 7*24*time.Hour-time.Second, next.EndDate.Sub(next.StartDate))
	})

	t.Run("周期汇总", func(t *testing.T) {
		summary, err := svc.GetPeriodSummary(ctx, period.ID)
		require.NoError(t, err)

		assert.Equal(t, 4, summary.TotalOrders)
		assert.Equal(t, 380.0, summary.GrossSales)
		assert.Equal(t, 38.0, summary.TotalCommission)
		assert.Equal(t, 25.0, summary.AdsRevenue)
		// 38 − 0 − 0 + 25
		assert.Equal(t, 63.0, summary.AdminCommission)
		assert.Equal(t, 342.0, summary.ShopPayable)
		assert.Equal(t, 35.0, summary.RiderPayable)
	})
}

func TestService_CloseCurrentPeriod_收款口径(t *testing.T) {
	svc, db, _ := setupSettlementService(t)
	ctx := context.Background()

	period := seedActivePeriod(t, db)
	paidAt := period.StartDate.Add(24 * time.Hour)

	seedSettledOrder(t, db, "DO20260104001", 1, 1, 100.0, 10.0, 10.0, paidAt)

	// 店铺已收款但骑手尚未上报完成的订单，按 shop_paid_at 归属本窗口
	riderID := int64(1)
	pickedUp := paidAt.Add(-30 * time.Minute)
	stillPaid := paidAt.Add(time.Hour)
	require.NoError(t, db.Create(&models.Order{
		OrderNo:        "DO20260104002",
		CustomerID:     1,
		ShopID:         1,
		RiderID:        &riderID,
		Status:         models.OrderStatusShopPaid,
		Subtotal:       60.0,
		ShopCommission: 6.0,
		DeliveryFee:    8.0,
		TotalAmount:    68.0,
		PickedUpAt:     &pickedUp,
		ShopPaidAt:     &stillPaid,
	}).Error)

	_, err := svc.CloseCurrentPeriod(ctx)
	require.NoError(t, err)

	var settlement models.ShopSettlement
	require.NoError(t, db.Where("period_id = ? AND shop_id = ?", period.ID, 1).First(&settlement).Error)

	assert.Equal(t, 2, settlement.TotalOrders)
	assert.Equal(t, 2, settlement.SettledOrders)
	assert.Equal(t, 0, settlement.CancelledOrders)
	assert.Equal(t, 160.0, settlement.GrossSales)
	assert.Equal(t, 16.0, settlement.TotalCommission)
	assert.Equal(t, 144.0, settlement.NetAmount)
}

func TestService_CloseCurrentPeriod_Errors(t *testing.T) {
	t.Run("无进行中周期", func(t *testing.T) {
		svc, _, _ := setupSettlementService(t)

		_, err := svc.CloseCurrentPeriod(context.Background())
		assert.True(t, errors.Is(err, errors.ErrNoActivePeriod))
	})

	t.Run("结算单已生成不可重复关账", func(t *testing.T) {
		svc, db, _ := setupSettlementService(t)
		period := seedActivePeriod(t, db)
		require.NoError(t, db.Create(&models.ShopSettlement{
			ShopID:   1,
			PeriodID: period.ID,
			Status:   models.SettlementStatusPending,
		}).Error)

		_, err := svc.CloseCurrentPeriod(context.Background())
		assert.True(t, errors.Is(err, errors.ErrSettlementExists))
	})

	t.Run("锁被占用时拒绝并发关账", func(t *testing.T) {
		svc, db, mr := setupSettlementService(t)
		seedActivePeriod(t, db)
		require.NoError(t, mr.Set(closeLockKey, "other-instance"))

		_, err := svc.CloseCurrentPeriod(context.Background())
		assert.True(t, errors.Is(err, errors.ErrPeriodCloseInProgress))

		// 失败后锁仍归持有者所有
		val, err2 := mr.Get(closeLockKey)
		require.NoError(t, err2)
		assert.Equal(t, "other-instance", val)
	})

	t.Run("关账后释放锁", func(t *testing.T) {
		svc, db, mr := setupSettlementService(t)
		seedActivePeriod(t, db)

		_, err := svc.CloseCurrentPeriod(context.Background())
		require.NoError(t, err)
		assert.False(t, mr.Exists(closeLockKey))
	})
}

func TestService_MarkSettled(t *testing.T) {
	svc, db, _ := setupSettlementService(t)
	ctx := context.Background()

	period := seedActivePeriod(t, db)
	period.Status = models.PeriodStatusClosed
	require.NoError(t, db.Save(period).Error)

	shopSettlement := &models.ShopSettlement{
		ShopID:   1,
		PeriodID: period.ID,
		Status:   models.SettlementStatusPending,
	}
	riderSettlement := &models.RiderSettlement{
		RiderID:  1,
		PeriodID: period.ID,
		Status:   models.SettlementStatusPending,
	}
	require.NoError(t, db.Create(shopSettlement).Error)
	require.NoError(t, db.Create(riderSettlement).Error)

	t.Run("店铺结算单打款确认", func(t *testing.T) {
		notes := "第1周打款"
		settled, err := svc.MarkShopSettled(ctx, shopSettlement.ID, &notes)
		require.NoError(t, err)
		assert.Equal(t, models.SettlementStatusSettled, settled.Status)
		assert.NotNil(t, settled.SettledAt)
		require.NotNil(t, settled.Notes)
		assert.Equal(t, notes, *settled.Notes)
	})

	t.Run("重复打款被拒绝", func(t *testing.T) {
		_, err := svc.MarkShopSettled(ctx, shopSettlement.ID, nil)
		assert.True(t, errors.Is(err, errors.ErrSettlementNotPending))
	})

	t.Run("部分结清时周期保持已关账", func(t *testing.T) {
		var p models.WeeklyPeriod
		require.NoError(t, db.First(&p, period.ID).Error)
		assert.Equal(t, models.PeriodStatusClosed, p.Status)
	})

	t.Run("全部结清后周期进入已结清", func(t *testing.T) {
		_, err := svc.MarkRiderSettled(ctx, riderSettlement.ID, nil)
		require.NoError(t, err)

		var p models.WeeklyPeriod
		require.NoError(t, db.First(&p, period.ID).Error)
		assert.Equal(t, models.PeriodStatusSettled, p.Status)
	})

	t.Run("结算单不存在", func(t *testing.T) {
		_, err := svc.MarkShopSettled(ctx, 99999, nil)
		assert.True(t, errors.Is(err, errors.ErrSettlementNotFound))
	})
}
