// Package auth 认证相关 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	authService "github.com/dumeirei/delivery-market-backend/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *authService.Service
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authSvc *authService.Service) *AuthHandler {
	return &AuthHandler{authService: authSvc}
}

// AdminLogin 管理员登录
// @Summary 管理员登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.AdminLoginRequest true "登录请求"
// @Success 200 {object} response.Response{data=authService.AdminLoginResponse}
// @Router /api/v1/auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req authService.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.authService.AdminLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, resp)
}

// RegisterCustomer 顾客注册
// @Summary 顾客注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterCustomerRequest true "注册请求"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/auth/customer/register [post]
func (h *AuthHandler) RegisterCustomer(c *gin.Context) {
	var req authService.RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.authService.RegisterCustomer(c.Request.Context(), &req)
	handler.MustSucceed(c, err, customer)
}

// phoneLoginRequest 手机号登录请求
type phoneLoginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// CustomerLogin 顾客登录
// @Summary 顾客登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body phoneLoginRequest true "登录请求"
// @Success 200 {object} response.Response{data=authService.CustomerLoginResponse}
// @Router /api/v1/auth/customer/login [post]
func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req phoneLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.authService.CustomerLogin(c.Request.Context(), req.Phone)
	handler.MustSucceed(c, err, resp)
}

// RiderLogin 骑手登录
// @Summary 骑手登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body phoneLoginRequest true "登录请求"
// @Success 200 {object} response.Response{data=authService.RiderLoginResponse}
// @Router /api/v1/auth/rider/login [post]
func (h *AuthHandler) RiderLogin(c *gin.Context) {
	var req phoneLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.authService.RiderLogin(c.Request.Context(), req.Phone)
	handler.MustSucceed(c, err, resp)
}

// ShopLogin 店铺登录
// @Summary 店铺登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.ShopLoginRequest true "登录请求"
// @Success 200 {object} response.Response{data=authService.ShopLoginResponse}
// @Router /api/v1/auth/shop/login [post]
func (h *AuthHandler) ShopLogin(c *gin.Context) {
	var req authService.ShopLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.authService.ShopLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, resp)
}

// refreshRequest 刷新令牌请求
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body refreshRequest true "刷新请求"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	token, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, token)
}
