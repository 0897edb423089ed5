package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

func setupAdminService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Customer{}, &models.Shop{}, &models.Rider{}, &models.OperationLog{}))

	svc := NewService(
		repository.NewCustomerRepository(db),
		repository.NewShopRepository(db),
		repository.NewRiderRepository(db),
		repository.NewOperationLogRepository(db),
		zap.NewNop(),
	)
	return svc, db
}

func TestService_CreateShop(t *testing.T) {
	svc, _ := setupAdminService(t)
	ctx := context.Background()

	t.Run("创建成功并应用默认佣金率", func(t *testing.T) {
		shop, err := svc.CreateShop(ctx, &CreateShopRequest{Name: "张记小吃"})
		require.NoError(t, err)
		assert.Equal(t, 0.10, shop.CommissionRate)
		assert.EqualValues(t, models.StatusActive, shop.Status)
	})

	t.Run("自定义佣金率", func(t *testing.T) {
		shop, err := svc.CreateShop(ctx, &CreateShopRequest{Name: "李记烧烤", CommissionRate: 0.15})
		require.NoError(t, err)
		assert.Equal(t, 0.15, shop.CommissionRate)
	})

	t.Run("佣金率超出范围", func(t *testing.T) {
		_, err := svc.CreateShop(ctx, &CreateShopRequest{Name: "x", CommissionRate: 1.0})
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))

		_, err = svc.CreateShop(ctx, &CreateShopRequest{Name: "x", CommissionRate: -0.1})
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))
	})
}

func TestService_UpdateShopCommissionRate(t *testing.T) {
	svc, _ := setupAdminService(t)
	ctx := context.Background()

	shop, err := svc.CreateShop(ctx, &CreateShopRequest{Name: "张记小吃"})
	require.NoError(t, err)

	t.Run("调整成功", func(t *testing.T) {
		updated, err := svc.UpdateShopCommissionRate(ctx, shop.ID, 0.12)
		require.NoError(t, err)
		assert.Equal(t, 0.12, updated.CommissionRate)
	})

	t.Run("店铺不存在", func(t *testing.T) {
		_, err := svc.UpdateShopCommissionRate(ctx, 999, 0.12)
		assert.True(t, errors.Is(err, errors.ErrShopNotFound))
	})

	t.Run("非法佣金率", func(t *testing.T) {
		_, err := svc.UpdateShopCommissionRate(ctx, shop.ID, 1.5)
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))
	})
}

func TestService_CreateRider(t *testing.T) {
	svc, _ := setupAdminService(t)
	ctx := context.Background()

	t.Run("创建成功", func(t *testing.T) {
		rider, err := svc.CreateRider(ctx, &CreateRiderRequest{Name: "李骑手", Phone: "13900000001"})
		require.NoError(t, err)
		assert.NotZero(t, rider.ID)
	})

	t.Run("手机号重复", func(t *testing.T) {
		_, err := svc.CreateRider(ctx, &CreateRiderRequest{Name: "王骑手", Phone: "13900000001"})
		assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
	})
}

func TestService_Lists(t *testing.T) {
	svc, db := setupAdminService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Customer{Phone: "13800000001", Status: models.StatusActive}).Error)
	require.NoError(t, db.Create(&models.Shop{Name: "张记小吃", Status: models.StatusActive}).Error)
	require.NoError(t, db.Create(&models.Rider{Name: "李骑手", Phone: "13900000001", Status: models.StatusActive}).Error)

	shops, total, err := svc.ListShops(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, shops, 1)

	riders, total, err := svc.ListRiders(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, riders, 1)

	customers, total, err := svc.ListCustomers(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, customers, 1)
}
