// Package repository 结算单仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// setupSettlementTestDB 创建结算测试数据库
func setupSettlementTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.WeeklyPeriod{},
		&models.ShopSettlement{},
		&models.RiderSettlement{},
		&models.Shop{},
		&models.Rider{},
	)
	require.NoError(t, err)

	return db
}

func createTestPeriod(t *testing.T, db *gorm.DB, status string) *models.WeeklyPeriod {
	t.Helper()

	period := &models.WeeklyPeriod{
		StartDate: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC),
		Status:    status,
	}
	require.NoError(t, db.Create(period).Error)
	return period
}

func TestSettlementRepository_CreateShopSettlementsTx(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)

	settlements := []*models.ShopSettlement{
		{ShopID: 1, PeriodID: period.ID, GrossSales: 300.0, TotalCommission: 30.0, NetAmount: 270.0, Status: models.SettlementStatusPending},
		{ShopID: 2, PeriodID: period.ID, GrossSales: 150.0, TotalCommission: 15.0, NetAmount: 135.0, Status: models.SettlementStatusPending},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CreateShopSettlementsTx(ctx, tx, settlements)
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.ShopSettlement{}).Where("period_id = ?", period.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSettlementRepository_ExistsForPeriod(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)

	t.Run("尚未生成结算单", func(t *testing.T) {
		exists, err := repo.ExistsForPeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("已生成结算单", func(t *testing.T) {
		settlement := &models.ShopSettlement{
			ShopID:   1,
			PeriodID: period.ID,
			Status:   models.SettlementStatusPending,
		}
		require.NoError(t, db.Create(settlement).Error)

		exists, err := repo.ExistsForPeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestSettlementRepository_MarkShopSettledGuarded(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)
	settlement := &models.ShopSettlement{
		ShopID:   1,
		PeriodID: period.ID,
		Status:   models.SettlementStatusPending,
	}
	require.NoError(t, db.Create(settlement).Error)

	t.Run("标记结清成功", func(t *testing.T) {
		notes := "银行转账"
		affected, err := repo.MarkShopSettledGuarded(ctx, settlement.ID, time.Now(), &notes)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		found, err := repo.GetShopSettlement(ctx, settlement.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SettlementStatusSettled, found.Status)
		assert.NotNil(t, found.SettledAt)
		require.NotNil(t, found.Notes)
		assert.Equal(t, "银行转账", *found.Notes)
	})

	t.Run("重复标记无效", func(t *testing.T) {
		affected, err := repo.MarkShopSettledGuarded(ctx, settlement.ID, time.Now(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestSettlementRepository_MarkRiderSettledGuarded(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)
	settlement := &models.RiderSettlement{
		RiderID:           1,
		PeriodID:          period.ID,
		DeliveryCount:     5,
		TotalDeliveryFees: 50.0,
		NetPayout:         50.0,
		Status:            models.SettlementStatusPending,
	}
	require.NoError(t, db.Create(settlement).Error)

	affected, err := repo.MarkRiderSettledGuarded(ctx, settlement.ID, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	found, err := repo.GetRiderSettlement(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementStatusSettled, found.Status)
}

func TestSettlementRepository_ListShopSettlements(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)

	for i := int64(1); i <= 3; i++ {
		settlement := &models.ShopSettlement{
			ShopID:   i,
			PeriodID: period.ID,
			Status:   models.SettlementStatusPending,
		}
		require.NoError(t, db.Create(settlement).Error)
	}

	t.Run("获取全部结算单", func(t *testing.T) {
		settlements, total, err := repo.ListShopSettlements(ctx, period.ID, "", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, settlements, 3)
	})

	t.Run("按状态筛选", func(t *testing.T) {
		settlements, total, err := repo.ListShopSettlements(ctx, period.ID, models.SettlementStatusSettled, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, settlements)
	})
}

func TestSettlementRepository_CountPendingByPeriod(t *testing.T) {
	db := setupSettlementTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	period := createTestPeriod(t, db, models.PeriodStatusClosed)

	require.NoError(t, db.Create(&models.ShopSettlement{ShopID: 1, PeriodID: period.ID, Status: models.SettlementStatusPending}).Error)
	require.NoError(t, db.Create(&models.ShopSettlement{ShopID: 2, PeriodID: period.ID, Status: models.SettlementStatusSettled}).Error)
	require.NoError(t, db.Create(&models.RiderSettlement{RiderID: 1, PeriodID: period.ID, Status: models.SettlementStatusPending}).Error)

	count, err := repo.CountPendingByPeriod(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
