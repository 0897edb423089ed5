// Package repository 积分流水仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// setupPointsTestDB 创建积分测试数据库
func setupPointsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.PointsTransaction{},
		&models.Customer{},
	)
	require.NoError(t, err)

	return db
}

func appendPointsTxn(t *testing.T, db *gorm.DB, customerID int64, txType string, points, balanceAfter int) *models.PointsTransaction {
	t.Helper()

	txn := &models.PointsTransaction{
		CustomerID:   customerID,
		Type:         txType,
		Points:       points,
		BalanceAfter: balanceAfter,
	}
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func TestPointsRepository_SumBalance(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewPointsRepository(db)
	ctx := context.Background()

	t.Run("无流水时余额为零", func(t *testing.T) {
		balance, err := repo.SumBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})

	t.Run("余额等于全部流水之和", func(t *testing.T) {
		appendPointsTxn(t, db, 1, models.PointsTypeEarned, 3, 3)
		appendPointsTxn(t, db, 1, models.PointsTypeEarned, 2, 5)
		appendPointsTxn(t, db, 1, models.PointsTypeRedeemed, -4, 1)

		balance, err := repo.SumBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, balance)
	})

	t.Run("不同客户独立计算", func(t *testing.T) {
		appendPointsTxn(t, db, 2, models.PointsTypeReferral, 2, 2)

		balance, err := repo.SumBalance(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
	})
}

func TestPointsRepository_CreateTx(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewPointsRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		txn := &models.PointsTransaction{
			CustomerID:   1,
			Type:         models.PointsTypeEarned,
			Points:       3,
			BalanceAfter: 3,
		}
		return repo.CreateTx(ctx, tx, txn)
	})
	require.NoError(t, err)

	balance, err := repo.SumBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestPointsRepository_HasReferralBonusTx(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewPointsRepository(db)
	ctx := context.Background()

	refID := int64(99)
	txn := &models.PointsTransaction{
		CustomerID:    1,
		RefCustomerID: &refID,
		Type:          models.PointsTypeReferral,
		Points:        2,
		BalanceAfter:  2,
	}
	require.NoError(t, db.Create(txn).Error)

	t.Run("已发放过奖励", func(t *testing.T) {
		exists, err := repo.HasReferralBonusTx(ctx, db, refID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("未发放过奖励", func(t *testing.T) {
		exists, err := repo.HasReferralBonusTx(ctx, db, 100)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestPointsRepository_HasOrderEarnTx(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewPointsRepository(db)
	ctx := context.Background()

	orderID := int64(7)
	txn := &models.PointsTransaction{
		CustomerID:   1,
		OrderID:      &orderID,
		Type:         models.PointsTypeEarned,
		Points:       3,
		BalanceAfter: 3,
	}
	require.NoError(t, db.Create(txn).Error)

	exists, err := repo.HasOrderEarnTx(ctx, db, orderID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.HasOrderEarnTx(ctx, db, 8)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPointsRepository_ListByCustomer(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewPointsRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		appendPointsTxn(t, db, 1, models.PointsTypeEarned, 1, i+1)
	}

	txns, total, err := repo.ListByCustomer(ctx, 1, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, txns, 3)
	// 按时间倒序，最新一条在最前
	assert.Equal(t, 5, txns[0].BalanceAfter)
}
