// Package auth 提供登录与令牌服务
package auth

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/crypto"
	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/common/jwt"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// Service 认证服务
type Service struct {
	customerRepo *repository.CustomerRepository
	shopRepo     *repository.ShopRepository
	riderRepo    *repository.RiderRepository
	adminRepo    *repository.AdminRepository
	jwtManager   *jwt.Manager
	logger       *zap.Logger
}

// NewService 创建认证服务
func NewService(
	customerRepo *repository.CustomerRepository,
	shopRepo *repository.ShopRepository,
	riderRepo *repository.RiderRepository,
	adminRepo *repository.AdminRepository,
	jwtManager *jwt.Manager,
	logger *zap.Logger,
) *Service {
	return &Service{
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		riderRepo:    riderRepo,
		adminRepo:    adminRepo,
		jwtManager:   jwtManager,
		logger:       logger,
	}
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse 管理员登录响应
type AdminLoginResponse struct {
	Admin *models.Admin  `json:"admin"`
	Token *jwt.TokenPair `json:"token"`
}

// AdminLogin 管理员登录
func (s *Service) AdminLogin(ctx context.Context, req *AdminLoginRequest) (*AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAdminNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if admin.Status != models.StatusActive {
		return nil, errors.ErrAccountDisabled
	}

	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, errors.ErrPasswordError
	}

	token, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	// 登录时间写失败不阻塞登录
	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID, time.Now()); err != nil {
		s.logger.Warn("更新管理员登录时间失败", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}

	return &AdminLoginResponse{Admin: admin, Token: token}, nil
}

// RegisterCustomerRequest 顾客注册请求
type RegisterCustomerRequest struct {
	Phone         string `json:"phone" binding:"required"`
	Nickname      string `json:"nickname"`
	ReferrerPhone string `json:"referrer_phone"`
}

// RegisterCustomer 顾客注册，可携带邀请人手机号建立邀请关系
func (s *Service) RegisterCustomer(ctx context.Context, req *RegisterCustomerRequest) (*models.Customer, error) {
	if _, err := s.customerRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, errors.ErrAlreadyExists.WithMessage("手机号已注册")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	customer := &models.Customer{
		Phone:    req.Phone,
		Nickname: req.Nickname,
		Status:   models.StatusActive,
	}

	if req.ReferrerPhone != "" {
		referrer, err := s.customerRepo.GetByPhone(ctx, req.ReferrerPhone)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrCustomerNotFound.WithMessage("邀请人不存在")
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		customer.ReferrerID = &referrer.ID
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("顾客注册",
		zap.Int64("customer_id", customer.ID),
		zap.String("phone", crypto.MaskPhone(customer.Phone)),
	)
	return customer, nil
}

// CustomerLoginResponse 顾客登录响应
type CustomerLoginResponse struct {
	Customer *models.Customer `json:"customer"`
	Token    *jwt.TokenPair   `json:"token"`
}

// CustomerLogin 顾客凭手机号登录
func (s *Service) CustomerLogin(ctx context.Context, phone string) (*CustomerLoginResponse, error) {
	customer, err := s.customerRepo.GetByPhone(ctx, phone)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if customer.Status != models.StatusActive {
		return nil, errors.ErrAccountDisabled
	}

	token, err := s.jwtManager.GenerateTokenPair(customer.ID, jwt.UserTypeCustomer)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &CustomerLoginResponse{Customer: customer, Token: token}, nil
}

// RiderLoginResponse 骑手登录响应
type RiderLoginResponse struct {
	Rider *models.Rider  `json:"rider"`
	Token *jwt.TokenPair `json:"token"`
}

// RiderLogin 骑手凭手机号登录
func (s *Service) RiderLogin(ctx context.Context, phone string) (*RiderLoginResponse, error) {
	rider, err := s.riderRepo.GetByPhone(ctx, phone)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRiderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rider.Status != models.StatusActive {
		return nil, errors.ErrRiderDisabled
	}

	token, err := s.jwtManager.GenerateTokenPair(rider.ID, jwt.UserTypeRider)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &RiderLoginResponse{Rider: rider, Token: token}, nil
}

// ShopLoginRequest 店铺登录请求，店铺编号加联系电话
type ShopLoginRequest struct {
	ShopID int64  `json:"shop_id" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
}

// ShopLoginResponse 店铺登录响应
type ShopLoginResponse struct {
	Shop  *models.Shop   `json:"shop"`
	Token *jwt.TokenPair `json:"token"`
}

// ShopLogin 店铺登录
func (s *Service) ShopLogin(ctx context.Context, req *ShopLoginRequest) (*ShopLoginResponse, error) {
	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrShopNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if shop.Status != models.StatusActive {
		return nil, errors.ErrShopDisabled
	}
	if shop.Phone == "" || shop.Phone != req.Phone {
		return nil, errors.ErrPasswordError.WithMessage("店铺编号或电话不匹配")
	}

	token, err := s.jwtManager.GenerateTokenPair(shop.ID, jwt.UserTypeShop)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &ShopLoginResponse{Shop: shop, Token: token}, nil
}

// RefreshToken 刷新令牌
func (s *Service) RefreshToken(_ context.Context, refreshToken string) (*jwt.TokenPair, error) {
	token, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenInvalid.WithError(err)
	}
	return token, nil
}

// CreateAdminRequest 创建管理员请求
type CreateAdminRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=32"`
	Nickname string `json:"nickname"`
}

// CreateAdmin 创建管理员账号
func (s *Service) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*models.Admin, error) {
	if _, err := s.adminRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.ErrAlreadyExists.WithMessage("用户名已存在")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	hash, err := crypto.HashPassword(req.Password, 0)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	admin := &models.Admin{
		Username:     req.Username,
		PasswordHash: hash,
		Nickname:     req.Nickname,
		Status:       models.StatusActive,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return admin, nil
}
