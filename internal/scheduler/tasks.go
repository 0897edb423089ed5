// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	settlementService "github.com/dumeirei/delivery-market-backend/internal/service/settlement"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	settlementService *settlementService.Service
	logger            *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(settlementSvc *settlementService.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		settlementService: settlementSvc,
		logger:            logger,
	}
}

// AutoCloseSettlementPeriod 自动关账
// 每次触发检查当前周期是否已过期：过期则走与手动关账相同的路径，
// 生成结算单并开启下一周期。多实例同时触发由 Redis 锁兜底
func (h *TaskHandler) AutoCloseSettlementPeriod(ctx context.Context) error {
	period, err := h.settlementService.EnsureActivePeriod(ctx)
	if err != nil {
		return err
	}

	if time.Now().Before(period.EndDate) {
		return nil
	}

	closed, err := h.settlementService.CloseCurrentPeriod(ctx)
	if err != nil {
		// 其他实例正在关账或已经关完，都不算任务失败
		if errors.Is(err, errors.ErrPeriodCloseInProgress) || errors.Is(err, errors.ErrSettlementExists) {
			h.logger.Info("自动关账跳过", zap.Error(err))
			return nil
		}
		return err
	}

	h.logger.Info("自动关账完成",
		zap.Int64("period_id", closed.ID),
		zap.Time("start_date", closed.StartDate),
		zap.Time("end_date", closed.EndDate),
	)
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, autoCloseInterval time.Duration) {
	if autoCloseInterval <= 0 {
		autoCloseInterval = time.Hour
	}
	scheduler.AddTask("AutoCloseSettlementPeriod", autoCloseInterval, handler.AutoCloseSettlementPeriod)
}
