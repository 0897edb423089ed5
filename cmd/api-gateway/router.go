// Package main 是应用程序入口
package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/config"
	"github.com/dumeirei/delivery-market-backend/internal/common/jwt"
	"github.com/dumeirei/delivery-market-backend/internal/common/metrics"
	adminHandler "github.com/dumeirei/delivery-market-backend/internal/handler/admin"
	authHandler "github.com/dumeirei/delivery-market-backend/internal/handler/auth"
	customerHandler "github.com/dumeirei/delivery-market-backend/internal/handler/customer"
	riderHandler "github.com/dumeirei/delivery-market-backend/internal/handler/rider"
	shopHandler "github.com/dumeirei/delivery-market-backend/internal/handler/shop"
	"github.com/dumeirei/delivery-market-backend/internal/middleware"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
	adminService "github.com/dumeirei/delivery-market-backend/internal/service/admin"
	adsService "github.com/dumeirei/delivery-market-backend/internal/service/ads"
	authService "github.com/dumeirei/delivery-market-backend/internal/service/auth"
	orderService "github.com/dumeirei/delivery-market-backend/internal/service/order"
	pointsService "github.com/dumeirei/delivery-market-backend/internal/service/points"
	settlementService "github.com/dumeirei/delivery-market-backend/internal/service/settlement"
)

// appServices 汇总各业务服务，供路由与后台任务共用
type appServices struct {
	jwtManager *jwt.Manager
	auth       *authService.Service
	order      *orderService.Service
	points     *pointsService.Service
	settlement *settlementService.Service
	admin      *adminService.Service
	ads        *adsService.Service
}

// buildServices 组装仓储与业务服务
func buildServices(cfg *config.Config, log *zap.Logger, db *gorm.DB, redisClient *redis.Client) *appServices {
	// 仓储层
	orderRepo := repository.NewOrderRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	adsRepo := repository.NewAdsRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	shopRepo := repository.NewShopRepository(db)
	riderRepo := repository.NewRiderRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	opLogRepo := repository.NewOperationLogRepository(db)

	// JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 积分规则从配置读取，缺省兜底
	rules := pointsService.Rules{
		EarnThreshold: cfg.Business.Points.EarnThreshold,
		PointValue:    cfg.Business.Points.PointValue,
		ReferralBonus: cfg.Business.Points.ReferralBonus,
	}
	if rules.EarnThreshold <= 0 {
		rules = pointsService.DefaultRules()
	}

	pointsSvc := pointsService.NewService(db, pointsRepo, customerRepo, rules, log)
	orderSvc := orderService.NewService(db, orderRepo, shopRepo, customerRepo, riderRepo, pointsSvc, log)
	orderSvc.RegisterCompletionHook(pointsSvc)
	settlementSvc := settlementService.NewService(
		db, periodRepo, settlementRepo, orderRepo, adsRepo,
		redisClient, cfg.Business.Settlement, log,
	)
	authSvc := authService.NewService(customerRepo, shopRepo, riderRepo, adminRepo, jwtManager, log)
	adminSvc := adminService.NewService(customerRepo, shopRepo, riderRepo, opLogRepo, log)
	adsSvc := adsService.NewService(adsRepo, shopRepo, log)

	return &appServices{
		jwtManager: jwtManager,
		auth:       authSvc,
		order:      orderSvc,
		points:     pointsSvc,
		settlement: settlementSvc,
		admin:      adminSvc,
		ads:        adsSvc,
	}
}

// setupRouter 配置所有路由
func setupRouter(r *gin.Engine, cfg *config.Config, log *zap.Logger, db *gorm.DB, redisClient *redis.Client, svcs *appServices) {
	jwtManager := svcs.jwtManager

	// Handler 层
	authH := authHandler.NewAuthHandler(svcs.auth)
	customerOrderH := customerHandler.NewOrderHandler(svcs.order)
	customerPointsH := customerHandler.NewPointsHandler(svcs.points)
	shopOrderH := shopHandler.NewOrderHandler(svcs.order)
	shopSettlementH := shopHandler.NewSettlementHandler(svcs.settlement)
	shopAdsH := shopHandler.NewAdsHandler(svcs.ads)
	riderOrderH := riderHandler.NewOrderHandler(svcs.order)
	riderSettlementH := riderHandler.NewSettlementHandler(svcs.settlement)
	adminSettlementH := adminHandler.NewSettlementHandler(svcs.settlement)
	adminOrderH := adminHandler.NewOrderHandler(svcs.order)
	adminPartyH := adminHandler.NewPartyHandler(svcs.admin, svcs.auth, svcs.points)

	// 全局中间件
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(log))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", "/metrics"},
		}))
	}
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware())
	}
	if cfg.RateLimit.Enabled {
		r.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.RequestsPerSecond, time.Second))
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// 监控指标
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	if cfg.IsDebug() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// 认证（公开）
	auth := v1.Group("/auth")
	{
		auth.POST("/admin/login", authH.AdminLogin)
		auth.POST("/customer/register", authH.RegisterCustomer)
		auth.POST("/customer/login", authH.CustomerLogin)
		auth.POST("/rider/login", authH.RiderLogin)
		auth.POST("/shop/login", authH.ShopLogin)
		auth.POST("/refresh", authH.RefreshToken)
	}

	// 顾客端
	customer := v1.Group("/customer", middleware.CustomerAuth(jwtManager))
	{
		customer.POST("/orders", customerOrderH.CreateOrder)
		customer.POST("/orders/preview", customerOrderH.PreviewOrder)
		customer.GET("/orders", customerOrderH.ListOrders)
		customer.GET("/orders/:id", customerOrderH.GetOrder)
		customer.GET("/orders/:id/qrcode", customerOrderH.GetOrderQRCode)
		customer.POST("/orders/:id/cancel", customerOrderH.CancelOrder)
		customer.POST("/orders/:id/complete", customerOrderH.ConfirmReceived)

		customer.GET("/points/balance", customerPointsH.GetBalance)
		customer.GET("/points/history", customerPointsH.GetHistory)
	}

	// 商家端
	shop := v1.Group("/shop", middleware.ShopAuth(jwtManager))
	{
		shop.GET("/orders", shopOrderH.ListOrders)
		shop.GET("/orders/pending", shopOrderH.ListPendingOrders)
		shop.POST("/orders/:id/accept", shopOrderH.AcceptOrder)
		shop.POST("/orders/:id/prepare", shopOrderH.StartPreparing)
		shop.POST("/orders/:id/confirm-cash", shopOrderH.ConfirmCashReceived)
		shop.POST("/orders/:id/cancel", shopOrderH.CancelOrder)

		shop.GET("/settlement/periods", shopSettlementH.ListPeriods)
		shop.GET("/settlement/periods/:period_id", shopSettlementH.GetSettlement)

		shop.POST("/ads", shopAdsH.CreateAd)
		shop.GET("/ads", shopAdsH.ListAds)
		shop.POST("/ads/:id/pause", shopAdsH.PauseAd)
		shop.POST("/ads/:id/resume", shopAdsH.ResumeAd)
	}

	// 骑手端
	rider := v1.Group("/rider", middleware.RiderAuth(jwtManager))
	{
		rider.GET("/orders", riderOrderH.ListOrders)
		rider.POST("/orders/:id/pickup", riderOrderH.MarkPickedUp)
		rider.POST("/orders/:id/collect-cash", riderOrderH.CollectCash)
		rider.POST("/orders/:id/hand-cash", riderOrderH.HandCashToShop)

		rider.GET("/settlement/periods", riderSettlementH.ListPeriods)
		rider.GET("/settlement/periods/:period_id", riderSettlementH.GetSettlement)
	}

	// 管理端，写操作落审计日志
	audit := middleware.NewAuditLogger(repository.NewOperationLogRepository(db))
	admin := v1.Group("/admin", middleware.AdminAuth(jwtManager), audit.Log())
	{
		admin.POST("/settlement/periods/close", adminSettlementH.ClosePeriod)
		admin.GET("/settlement/periods", adminSettlementH.ListPeriods)
		admin.GET("/settlement/periods/:id", adminSettlementH.GetPeriod)
		admin.GET("/settlement/periods/:id/summary", adminSettlementH.GetPeriodSummary)
		admin.GET("/settlement/periods/:id/shops", adminSettlementH.ListShopSettlements)
		admin.GET("/settlement/periods/:id/riders", adminSettlementH.ListRiderSettlements)
		admin.POST("/settlement/shops/:id/settle", adminSettlementH.MarkShopSettled)
		admin.POST("/settlement/riders/:id/settle", adminSettlementH.MarkRiderSettled)

		admin.GET("/orders", adminOrderH.ListOrders)
		admin.GET("/orders/:id", adminOrderH.GetOrder)

		admin.POST("/shops", adminPartyH.CreateShop)
		admin.GET("/shops", adminPartyH.ListShops)
		admin.PUT("/shops/:id/commission-rate", adminPartyH.UpdateShopCommissionRate)
		admin.POST("/riders", adminPartyH.CreateRider)
		admin.GET("/riders", adminPartyH.ListRiders)
		admin.GET("/customers", adminPartyH.ListCustomers)
		admin.POST("/customers/:id/points/adjust", adminPartyH.AdjustCustomerPoints)
		admin.POST("/admins", adminPartyH.CreateAdmin)
		admin.GET("/operation-logs", adminPartyH.ListOperationLogs)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})
}
