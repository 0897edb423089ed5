// Package ads 提供店铺广告位管理服务
package ads

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// Service 广告服务
type Service struct {
	adsRepo  *repository.AdsRepository
	shopRepo *repository.ShopRepository
	logger   *zap.Logger
}

// NewService 创建广告服务
func NewService(adsRepo *repository.AdsRepository, shopRepo *repository.ShopRepository, logger *zap.Logger) *Service {
	return &Service{
		adsRepo:  adsRepo,
		shopRepo: shopRepo,
		logger:   logger,
	}
}

// CreateAdRequest 创建广告请求
type CreateAdRequest struct {
	ShopID    int64     `json:"-"`
	Name      string    `json:"name" binding:"required,max=100"`
	DailyCost float64   `json:"daily_cost" binding:"required"`
	StartDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
}

// CreateAd 创建广告投放，按天计费，费用在周结算时按重叠天数计收
func (s *Service) CreateAd(ctx context.Context, req *CreateAdRequest) (*models.Ad, error) {
	if req.DailyCost <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("日费用必须大于0")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, errors.ErrInvalidParams.WithMessage("结束日期不能早于开始日期")
	}

	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		return nil, errors.ErrShopNotFound.WithError(err)
	}
	if shop.Status != models.StatusActive {
		return nil, errors.ErrShopDisabled
	}

	ad := &models.Ad{
		ShopID:    req.ShopID,
		Name:      req.Name,
		DailyCost: req.DailyCost,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.AdStatusActive,
	}
	if err := s.adsRepo.Create(ctx, ad); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("广告创建成功",
		zap.Int64("ad_id", ad.ID),
		zap.Int64("shop_id", ad.ShopID),
		zap.Float64("daily_cost", ad.DailyCost),
	)
	return ad, nil
}

// ListShopAds 店铺广告列表
func (s *Service) ListShopAds(ctx context.Context, shopID int64, offset, limit int) ([]*models.Ad, int64, error) {
	return s.adsRepo.ListByShop(ctx, shopID, offset, limit)
}

// PauseAd 暂停投放，暂停后不参与后续周期的广告费计收
func (s *Service) PauseAd(ctx context.Context, shopID, adID int64) error {
	return s.setStatus(ctx, shopID, adID, models.AdStatusPaused)
}

// ResumeAd 恢复投放
func (s *Service) ResumeAd(ctx context.Context, shopID, adID int64) error {
	return s.setStatus(ctx, shopID, adID, models.AdStatusActive)
}

func (s *Service) setStatus(ctx context.Context, shopID, adID int64, status int8) error {
	ad, err := s.adsRepo.GetByID(ctx, adID)
	if err != nil {
		return errors.ErrNotFound.WithMessage("广告不存在")
	}
	if ad.ShopID != shopID {
		return errors.ErrPermissionDenied
	}
	if err := s.adsRepo.UpdateStatus(ctx, adID, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
