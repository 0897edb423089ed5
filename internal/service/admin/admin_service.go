// Package admin 提供管理端的商户与骑手管理服务
package admin

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// Service 管理服务
type Service struct {
	customerRepo *repository.CustomerRepository
	shopRepo     *repository.ShopRepository
	riderRepo    *repository.RiderRepository
	opLogRepo    *repository.OperationLogRepository
	logger       *zap.Logger
}

// NewService 创建管理服务
func NewService(
	customerRepo *repository.CustomerRepository,
	shopRepo *repository.ShopRepository,
	riderRepo *repository.RiderRepository,
	opLogRepo *repository.OperationLogRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		riderRepo:    riderRepo,
		opLogRepo:    opLogRepo,
		logger:       logger,
	}
}

// CreateShopRequest 创建店铺请求
type CreateShopRequest struct {
	Name           string  `json:"name" binding:"required,max=100"`
	Phone          string  `json:"phone"`
	CommissionRate float64 `json:"commission_rate"`
}

// CreateShop 创建店铺，佣金率缺省为 10%
func (s *Service) CreateShop(ctx context.Context, req *CreateShopRequest) (*models.Shop, error) {
	rate := req.CommissionRate
	if rate == 0 {
		rate = 0.10
	}
	if rate < 0 || rate >= 1 {
		return nil, errors.ErrInvalidParams.WithMessage("佣金率必须在 [0, 1) 区间内")
	}

	shop := &models.Shop{
		Name:           req.Name,
		Phone:          req.Phone,
		CommissionRate: rate,
		Status:         models.StatusActive,
	}
	if err := s.shopRepo.Create(ctx, shop); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("店铺创建成功",
		zap.Int64("shop_id", shop.ID),
		zap.String("name", shop.Name),
		zap.Float64("commission_rate", shop.CommissionRate),
	)
	return shop, nil
}

// UpdateShopCommissionRate 调整店铺佣金率，只影响之后创建的订单
func (s *Service) UpdateShopCommissionRate(ctx context.Context, shopID int64, rate float64) (*models.Shop, error) {
	if rate < 0 || rate >= 1 {
		return nil, errors.ErrInvalidParams.WithMessage("佣金率必须在 [0, 1) 区间内")
	}

	if _, err := s.shopRepo.GetByID(ctx, shopID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrShopNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.shopRepo.UpdateCommissionRate(ctx, shopID, rate); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.shopRepo.GetByID(ctx, shopID)
}

// CreateRiderRequest 创建骑手请求
type CreateRiderRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Phone string `json:"phone" binding:"required"`
}

// CreateRider 创建骑手
func (s *Service) CreateRider(ctx context.Context, req *CreateRiderRequest) (*models.Rider, error) {
	if _, err := s.riderRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, errors.ErrAlreadyExists.WithMessage("手机号已注册")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	rider := &models.Rider{
		Name:   req.Name,
		Phone:  req.Phone,
		Status: models.StatusActive,
	}
	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rider, nil
}

// ListShops 店铺列表
func (s *Service) ListShops(ctx context.Context, offset, limit int) ([]*models.Shop, int64, error) {
	return s.shopRepo.List(ctx, offset, limit)
}

// ListRiders 骑手列表
func (s *Service) ListRiders(ctx context.Context, offset, limit int) ([]*models.Rider, int64, error) {
	return s.riderRepo.List(ctx, offset, limit)
}

// ListCustomers 顾客列表
func (s *Service) ListCustomers(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	return s.customerRepo.List(ctx, offset, limit)
}

// ListOperationLogs 操作审计日志列表
func (s *Service) ListOperationLogs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.OperationLog, int64, error) {
	return s.opLogRepo.List(ctx, offset, limit, filters)
}
