// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/delivery-market-backend/internal/common/cache"
	"github.com/dumeirei/delivery-market-backend/internal/common/config"
	"github.com/dumeirei/delivery-market-backend/internal/common/database"
	"github.com/dumeirei/delivery-market-backend/internal/common/logger"
	"github.com/dumeirei/delivery-market-backend/internal/common/metrics"
	"github.com/dumeirei/delivery-market-backend/internal/common/tracing"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/scheduler"
)

// @title 外卖集市后端 API
// @version 1.0
// @description 订单生命周期、积分与周结算对账服务
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	log.Info("服务启动中",
		zap.String("name", cfg.Server.Name),
		zap.String("mode", cfg.Server.Mode),
		zap.Int("port", cfg.Server.Port),
	)

	// 初始化数据库
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("初始化数据库失败", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Shop{},
		&models.Rider{},
		&models.Admin{},
		&models.Order{},
		&models.PointsTransaction{},
		&models.WeeklyPeriod{},
		&models.ShopSettlement{},
		&models.RiderSettlement{},
		&models.Ad{},
		&models.OperationLog{},
	); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 初始化 Redis
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("初始化 Redis 失败", zap.Error(err))
	}

	// 初始化监控指标
	if cfg.Metrics.Enabled {
		metrics.Init("")
	}

	// 初始化链路追踪
	if cfg.Tracing.Enabled {
		tracer, err := tracing.Init(&tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
			Environment: cfg.Server.Mode,
			Enabled:     true,
		})
		if err != nil {
			log.Warn("初始化链路追踪失败", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracer.Shutdown(shutdownCtx); err != nil {
					log.Warn("关闭链路追踪失败", zap.Error(err))
				}
			}()
		}
	}

	// 组装业务服务
	svcs := buildServices(cfg, log, db, redisClient)

	// 启动时保证存在进行中的结算周期
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := svcs.settlement.EnsureActivePeriod(startupCtx); err != nil {
		log.Warn("初始化结算周期失败", zap.Error(err))
	}
	cancel()

	// 启动后台定时任务（周期自动关账）
	sched := scheduler.NewScheduler(log)
	taskHandler := scheduler.NewTaskHandler(svcs.settlement, log)
	scheduler.SetupTasks(sched, taskHandler,
		time.Duration(cfg.Business.Settlement.AutoCloseInterval)*time.Second)
	sched.Start()
	defer sched.Stop()

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 创建路由
	engine := gin.New()
	setupRouter(engine, cfg, log, db, redisClient, svcs)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		log.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP 服务器异常退出", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，开始优雅关闭")

	// 优雅关闭
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP 服务器关闭失败", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn("关闭数据库连接失败", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Warn("关闭 Redis 连接失败", zap.Error(err))
	}

	log.Info("服务已退出")
}
