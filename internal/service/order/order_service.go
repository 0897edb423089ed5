package order

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/common/metrics"
	"github.com/dumeirei/delivery-market-backend/internal/common/utils"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
	"github.com/dumeirei/delivery-market-backend/internal/service/points"
)

// CompletionHook 订单完成后的回调
// 回调失败只记录日志，不影响已完成的状态流转
type CompletionHook interface {
	OnOrderCompleted(ctx context.Context, order *models.Order) error
}

// Service 订单服务
type Service struct {
	db           *gorm.DB
	orderRepo    *repository.OrderRepository
	shopRepo     *repository.ShopRepository
	customerRepo *repository.CustomerRepository
	riderRepo    *repository.RiderRepository
	pointsSvc    *points.Service
	hooks        []CompletionHook
	logger       *zap.Logger
}

// NewService 创建订单服务
func NewService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	shopRepo *repository.ShopRepository,
	customerRepo *repository.CustomerRepository,
	riderRepo *repository.RiderRepository,
	pointsSvc *points.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:           db,
		orderRepo:    orderRepo,
		shopRepo:     shopRepo,
		customerRepo: customerRepo,
		riderRepo:    riderRepo,
		pointsSvc:    pointsSvc,
		logger:       logger,
	}
}

// RegisterCompletionHook 注册订单完成回调
func (s *Service) RegisterCompletionHook(hook CompletionHook) {
	s.hooks = append(s.hooks, hook)
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	CustomerID     int64   `json:"-"`
	ShopID         int64   `json:"shop_id" binding:"required"`
	Subtotal       float64 `json:"subtotal" binding:"required"`
	DeliveryFee    float64 `json:"delivery_fee"`
	IsFreeDelivery bool    `json:"is_free_delivery"`
	PointsToUse    int     `json:"points_to_use"`
}

// CreateOrder 下单
// 积分抵扣与订单创建在同一事务内：余额校验基于账本求和，
// 抵扣额与免配送费补贴合计不得超过店铺佣金
func (s *Service) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if req.Subtotal <= 0 {
		return nil, errors.ErrOrderAmountInvalid
	}
	if req.DeliveryFee < 0 || req.PointsToUse < 0 {
		return nil, errors.ErrInvalidParams
	}

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.ErrCustomerNotFound.WithError(err)
	}
	if customer.Status != models.StatusActive {
		return nil, errors.ErrAccountDisabled
	}

	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		return nil, errors.ErrShopNotFound.WithError(err)
	}
	if shop.Status != models.StatusActive {
		return nil, errors.ErrShopDisabled
	}

	shopCommission := ShopCommission(req.Subtotal, shop.CommissionRate)
	freeDeliveryCost := 0.0
	if req.IsFreeDelivery {
		freeDeliveryCost = req.DeliveryFee
	}

	rules := s.pointsSvc.Rules()
	pointsDiscount := rules.DiscountValue(req.PointsToUse)

	// 优惠总额不能超过店铺佣金，超出的部分没有利润来源
	if !CanApplyDiscount(shopCommission, pointsDiscount+freeDeliveryCost) {
		return nil, errors.ErrDiscountExceedsMargin
	}

	adminCommission := PlatformCommission(shopCommission, pointsDiscount, freeDeliveryCost)

	deliveryFee := req.DeliveryFee
	customerDeliveryFee := deliveryFee
	if req.IsFreeDelivery {
		customerDeliveryFee = 0
	}
	totalAmount := utils.Round2(req.Subtotal + customerDeliveryFee - pointsDiscount)

	order := &models.Order{
		OrderNo:         utils.GenerateOrderNo("DO"),
		CustomerID:      req.CustomerID,
		ShopID:          req.ShopID,
		Status:          models.OrderStatusPending,
		Subtotal:        req.Subtotal,
		DeliveryFee:     deliveryFee,
		IsFreeDelivery:  req.IsFreeDelivery,
		PointsUsed:      req.PointsToUse,
		PointsDiscount:  pointsDiscount,
		TotalAmount:     totalAmount,
		ShopCommission:  utils.Round2(shopCommission),
		AdminCommission: utils.Round2(adminCommission),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if req.PointsToUse > 0 {
			// 抵扣校验基于抵扣前的平台毛利
			availableMargin := PlatformCommission(shopCommission, 0, freeDeliveryCost)
			if _, err := s.pointsSvc.RedeemTx(ctx, tx, req.CustomerID, req.PointsToUse, availableMargin, order.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordOrderCreated(order.ShopID)
	s.logger.Info("订单创建成功",
		zap.String("order_no", order.OrderNo),
		zap.Int64("customer_id", order.CustomerID),
		zap.Int64("shop_id", order.ShopID),
		zap.Float64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// AcceptOrder 店铺接单并分配骑手
func (s *Service) AcceptOrder(ctx context.Context, orderID, riderID int64) (*models.Order, error) {
	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, errors.ErrRiderNotFound.WithError(err)
	}
	if rider.Status != models.StatusActive {
		return nil, errors.ErrRiderDisabled
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}
	if !CanTransitionTo(order.Status, models.OrderStatusAccepted) {
		return nil, errors.ErrOrderIllegalTransition
	}

	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusGuarded(ctx, orderID, order.Status, map[string]interface{}{
		"status":      models.OrderStatusAccepted,
		"rider_id":    riderID,
		"accepted_at": now,
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return nil, errors.ErrOrderStatusConflict
	}

	metrics.GetMetrics().RecordOrderTransition(string(order.Status), string(models.OrderStatusAccepted))
	return s.orderRepo.GetByID(ctx, orderID)
}

// Transition 通用状态流转
// 通过带前置状态守卫的原子更新串行化同一订单上的并发流转：
// 两个并发请求最多只有一个能通过守卫
func (s *Service) Transition(ctx context.Context, orderID int64, target models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}

	if !CanTransitionTo(order.Status, target) {
		if target == models.OrderStatusCancelled && !order.Status.IsTerminal() {
			return nil, errors.ErrOrderCannotCancel
		}
		return nil, errors.ErrOrderIllegalTransition
	}
	if RequiresRider(target) && !order.HasRider() {
		return nil, errors.ErrOrderRiderRequired
	}

	fields := map[string]interface{}{"status": target}
	if col, ok := TimestampColumn(target); ok {
		fields[col] = time.Now()
	}

	affected, err := s.orderRepo.UpdateStatusGuarded(ctx, orderID, order.Status, fields)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return nil, errors.ErrOrderStatusConflict
	}

	metrics.GetMetrics().RecordOrderTransition(string(order.Status), string(target))

	updated, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if target == models.OrderStatusCompleted {
		s.runCompletionHooks(ctx, updated)
	}

	return updated, nil
}

// StartPreparing 商家开始备餐
func (s *Service) StartPreparing(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.Transition(ctx, orderID, models.OrderStatusPreparing)
}

// MarkPickedUp 骑手取货
func (s *Service) MarkPickedUp(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.Transition(ctx, orderID, models.OrderStatusPickedUp)
}

// CollectCash 骑手标记已向顾客收取现金
func (s *Service) CollectCash(ctx context.Context, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return errors.ErrOrderNotFound.WithError(err)
	}
	if order.Status != models.OrderStatusPickedUp && order.Status != models.OrderStatusShopPaid {
		return errors.ErrOrderIllegalTransition
	}
	return s.orderRepo.UpdateFields(ctx, orderID, map[string]interface{}{
		"cash_collected": true,
	})
}

// HandCashToShop 骑手标记现金已交店铺
func (s *Service) HandCashToShop(ctx context.Context, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return errors.ErrOrderNotFound.WithError(err)
	}
	if !order.CashCollected {
		return errors.ErrOrderIllegalTransition.WithMessage("骑手尚未收取现金")
	}
	return s.orderRepo.UpdateFields(ctx, orderID, map[string]interface{}{
		"cash_to_shop": true,
	})
}

// ConfirmShopPaid 店铺确认收款，订单进入 shop_paid
func (s *Service) ConfirmShopPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}
	if !CanTransitionTo(order.Status, models.OrderStatusShopPaid) {
		return nil, errors.ErrOrderIllegalTransition
	}

	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusGuarded(ctx, orderID, order.Status, map[string]interface{}{
		"status":              models.OrderStatusShopPaid,
		"shop_paid_at":        now,
		"shop_confirmed_cash": true,
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return nil, errors.ErrOrderStatusConflict
	}

	metrics.GetMetrics().RecordOrderTransition(string(order.Status), string(models.OrderStatusShopPaid))
	return s.orderRepo.GetByID(ctx, orderID)
}

// CompleteOrder 顾客确认收货，订单完成
func (s *Service) CompleteOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.Transition(ctx, orderID, models.OrderStatusCompleted)
}

// CancelOrder 取消订单
// 骑手取货后不允许取消；取消时在同一事务内回补已抵扣的积分
func (s *Service) CancelOrder(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}

	if !CanTransitionTo(order.Status, models.OrderStatusCancelled) {
		return nil, errors.ErrOrderCannotCancel
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancelled_at":  time.Now(),
				"cancel_reason": reason,
			})
		if result.Error != nil {
			return errors.ErrDatabaseError.WithError(result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.ErrOrderStatusConflict
		}

		if order.PointsUsed > 0 {
			return s.pointsSvc.RefundTx(ctx, tx, order.CustomerID, order.PointsUsed, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordOrderTransition(string(order.Status), string(models.OrderStatusCancelled))
	s.logger.Info("订单已取消",
		zap.String("order_no", order.OrderNo),
		zap.String("reason", reason),
	)

	return s.orderRepo.GetByID(ctx, orderID)
}

// PreviewOrderRequest 下单试算请求
type PreviewOrderRequest struct {
	CustomerID     int64   `json:"-"`
	ShopID         int64   `json:"shop_id" binding:"required"`
	Subtotal       float64 `json:"subtotal" binding:"required"`
	DeliveryFee    float64 `json:"delivery_fee"`
	IsFreeDelivery bool    `json:"is_free_delivery"`
}

// OrderPreview 下单试算结果
type OrderPreview struct {
	ShopCommission      float64 `json:"shop_commission"`
	PointsBalance       int     `json:"points_balance"`
	MaxRedeemablePoints int     `json:"max_redeemable_points"`
	PointsEarned        int     `json:"points_earned"`
	TotalAmount         float64 `json:"total_amount"`
}

// PreviewOrder 下单试算：返回可抵扣积分上限与应付金额，不落库
func (s *Service) PreviewOrder(ctx context.Context, req *PreviewOrderRequest) (*OrderPreview, error) {
	if req.Subtotal <= 0 {
		return nil, errors.ErrOrderAmountInvalid
	}
	if req.DeliveryFee < 0 {
		return nil, errors.ErrInvalidParams
	}

	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		return nil, errors.ErrShopNotFound.WithError(err)
	}
	if shop.Status != models.StatusActive {
		return nil, errors.ErrShopDisabled
	}

	balance, err := s.pointsSvc.BalanceFor(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	shopCommission := ShopCommission(req.Subtotal, shop.CommissionRate)
	freeDeliveryCost := 0.0
	customerDeliveryFee := req.DeliveryFee
	if req.IsFreeDelivery {
		freeDeliveryCost = req.DeliveryFee
		customerDeliveryFee = 0
	}

	rules := s.pointsSvc.Rules()
	availableMargin := PlatformCommission(shopCommission, 0, freeDeliveryCost)

	return &OrderPreview{
		ShopCommission:      utils.Round2(shopCommission),
		PointsBalance:       balance,
		MaxRedeemablePoints: rules.MaxRedeemablePoints(balance, availableMargin),
		PointsEarned:        rules.PointsEarned(req.Subtotal),
		TotalAmount:         utils.Round2(req.Subtotal + customerDeliveryFee),
	}, nil
}

// GetOrder 获取订单
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}
	return order, nil
}

// GetOrderByNo 根据订单号获取订单
func (s *Service) GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, errors.ErrOrderNotFound.WithError(err)
	}
	return order, nil
}

// ListCustomerOrders 顾客订单列表
func (s *Service) ListCustomerOrders(ctx context.Context, customerID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	return s.orderRepo.ListByCustomer(ctx, customerID, offset, limit, status)
}

// ListPendingOrders 店铺待接单列表
func (s *Service) ListPendingOrders(ctx context.Context, shopID int64, limit int) ([]*models.Order, error) {
	return s.orderRepo.ListPendingForShop(ctx, shopID, limit)
}

// ListShopOrders 店铺订单列表
func (s *Service) ListShopOrders(ctx context.Context, shopID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	return s.orderRepo.ListByShop(ctx, shopID, offset, limit, status)
}

// ListRiderOrders 骑手订单列表
func (s *Service) ListRiderOrders(ctx context.Context, riderID int64, offset, limit int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	return s.orderRepo.ListByRider(ctx, riderID, offset, limit, status)
}

// ListOrders 管理端订单列表
func (s *Service) ListOrders(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Order, int64, error) {
	return s.orderRepo.List(ctx, offset, limit, filters)
}

// runCompletionHooks 执行订单完成回调，失败只记日志
func (s *Service) runCompletionHooks(ctx context.Context, order *models.Order) {
	for _, hook := range s.hooks {
		if err := hook.OnOrderCompleted(ctx, order); err != nil {
			s.logger.Error("订单完成回调执行失败",
				zap.String("order_no", order.OrderNo),
				zap.Error(err),
			)
		}
	}
}
