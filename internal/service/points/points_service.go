package points

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/common/metrics"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// Service 积分账本服务
// 账本只增不改，余额始终从流水求和得出，不信任任何缓存计数器
type Service struct {
	db           *gorm.DB
	pointsRepo   *repository.PointsRepository
	customerRepo *repository.CustomerRepository
	rules        Rules
	logger       *zap.Logger
}

// NewService 创建积分服务
func NewService(
	db *gorm.DB,
	pointsRepo *repository.PointsRepository,
	customerRepo *repository.CustomerRepository,
	rules Rules,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:           db,
		pointsRepo:   pointsRepo,
		customerRepo: customerRepo,
		rules:        rules,
		logger:       logger,
	}
}

// Rules 返回当前积分规则
func (s *Service) Rules() Rules {
	return s.rules
}

// BalanceFor 客户积分余额
func (s *Service) BalanceFor(ctx context.Context, customerID int64) (int, error) {
	balance, err := s.pointsRepo.SumBalance(ctx, customerID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return balance, nil
}

// History 客户积分流水
func (s *Service) History(ctx context.Context, customerID int64, offset, limit int) ([]*models.PointsTransaction, int64, error) {
	txns, total, err := s.pointsRepo.ListByCustomer(ctx, customerID, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return txns, total, nil
}

// RedeemTx 在事务中抵扣积分
// 余额在同一事务内从流水求和，校验通过后才追加负向流水，
// 返回本次抵扣对应的金额
func (s *Service) RedeemTx(ctx context.Context, tx *gorm.DB, customerID int64, pointsToUse int, platformCommission float64, orderID int64) (float64, error) {
	balance, err := s.pointsRepo.SumBalanceTx(ctx, tx, customerID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.rules.ValidateRedemption(pointsToUse, balance, platformCommission); err != nil {
		return 0, err
	}

	desc := fmt.Sprintf("订单抵扣 %d 积分", pointsToUse)
	txn := &models.PointsTransaction{
		CustomerID:   customerID,
		OrderID:      &orderID,
		Type:         models.PointsTypeRedeemed,
		Points:       -pointsToUse,
		BalanceAfter: balance - pointsToUse,
		Description:  &desc,
	}
	if err := s.pointsRepo.CreateTx(ctx, tx, txn); err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordPointsTransaction(models.PointsTypeRedeemed)
	return s.rules.DiscountValue(pointsToUse), nil
}

// RefundTx 在事务中退还积分（订单取消时回补抵扣）
func (s *Service) RefundTx(ctx context.Context, tx *gorm.DB, customerID int64, pts int, orderID int64) error {
	if pts <= 0 {
		return nil
	}

	balance, err := s.pointsRepo.SumBalanceTx(ctx, tx, customerID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	desc := fmt.Sprintf("订单取消退还 %d 积分", pts)
	txn := &models.PointsTransaction{
		CustomerID:   customerID,
		OrderID:      &orderID,
		Type:         models.PointsTypeAdjustment,
		Points:       pts,
		BalanceAfter: balance + pts,
		Description:  &desc,
	}
	if err := s.pointsRepo.CreateTx(ctx, tx, txn); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordPointsTransaction(models.PointsTypeAdjustment)
	return nil
}

// Adjust 人工调整积分（管理端）
// 负向调整不允许把余额调成负数
func (s *Service) Adjust(ctx context.Context, customerID int64, delta int, description string) error {
	if delta == 0 {
		return errors.ErrPointsInvalid
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.pointsRepo.SumBalanceTx(ctx, tx, customerID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if balance+delta < 0 {
			return errors.ErrPointsInsufficient
		}

		txn := &models.PointsTransaction{
			CustomerID:   customerID,
			Type:         models.PointsTypeAdjustment,
			Points:       delta,
			BalanceAfter: balance + delta,
			Description:  &description,
		}
		return s.pointsRepo.CreateTx(ctx, tx, txn)
	})
	if err != nil {
		return err
	}

	metrics.GetMetrics().RecordPointsTransaction(models.PointsTypeAdjustment)
	return nil
}

// AwardOrderPoints 订单完成后发放消费积分
// 同一订单只发放一次，发放与订单积分字段更新在同一事务内
func (s *Service) AwardOrderPoints(ctx context.Context, order *models.Order) error {
	earned := s.rules.PointsEarned(order.Subtotal)
	if earned <= 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		awarded, err := s.pointsRepo.HasOrderEarnTx(ctx, tx, order.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if awarded {
			return nil
		}

		balance, err := s.pointsRepo.SumBalanceTx(ctx, tx, order.CustomerID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		desc := fmt.Sprintf("订单 %s 消费获得 %d 积分", order.OrderNo, earned)
		txn := &models.PointsTransaction{
			CustomerID:   order.CustomerID,
			OrderID:      &order.ID,
			Type:         models.PointsTypeEarned,
			Points:       earned,
			BalanceAfter: balance + earned,
			Description:  &desc,
		}
		if err := s.pointsRepo.CreateTx(ctx, tx, txn); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		return tx.WithContext(ctx).Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("points_earned", earned).Error
	})
	if err != nil {
		return err
	}

	metrics.GetMetrics().RecordPointsTransaction(models.PointsTypeEarned)
	return nil
}

// AwardReferralBonus 被邀请客户首单完成后给邀请人发放奖励
// 每个被邀请客户只触发一次
func (s *Service) AwardReferralBonus(ctx context.Context, customerID int64) error {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return errors.ErrCustomerNotFound.WithError(err)
	}
	if customer.ReferrerID == nil || *customer.ReferrerID <= 0 {
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		granted, err := s.pointsRepo.HasReferralBonusTx(ctx, tx, customer.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if granted {
			return nil
		}

		balance, err := s.pointsRepo.SumBalanceTx(ctx, tx, *customer.ReferrerID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		desc := fmt.Sprintf("邀请客户 %d 首单完成奖励", customer.ID)
		txn := &models.PointsTransaction{
			CustomerID:    *customer.ReferrerID,
			RefCustomerID: &customer.ID,
			Type:          models.PointsTypeReferral,
			Points:        s.rules.ReferralBonus,
			BalanceAfter:  balance + s.rules.ReferralBonus,
			Description:   &desc,
		}
		return s.pointsRepo.CreateTx(ctx, tx, txn)
	})
	if err != nil {
		return err
	}

	metrics.GetMetrics().RecordPointsTransaction(models.PointsTypeReferral)
	return nil
}

// OnOrderCompleted 订单完成回调：发积分、发邀请奖励
func (s *Service) OnOrderCompleted(ctx context.Context, order *models.Order) error {
	if err := s.AwardOrderPoints(ctx, order); err != nil {
		s.logger.Error("发放消费积分失败",
			zap.String("order_no", order.OrderNo),
			zap.Int64("customer_id", order.CustomerID),
			zap.Error(err),
		)
		return err
	}

	if err := s.AwardReferralBonus(ctx, order.CustomerID); err != nil {
		s.logger.Error("发放邀请奖励失败",
			zap.String("order_no", order.OrderNo),
			zap.Int64("customer_id", order.CustomerID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
