package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/delivery-market-backend/internal/common/cache"
	"github.com/dumeirei/delivery-market-backend/internal/common/config"
	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
	"github.com/dumeirei/delivery-market-backend/internal/common/metrics"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// closeLockKey 全局关账锁，同一时刻最多一个关账在执行
const closeLockKey = "settlement:close:lock"

// Service 结算服务
type Service struct {
	db             *gorm.DB
	periodRepo     *repository.PeriodRepository
	settlementRepo *repository.SettlementRepository
	orderRepo      *repository.OrderRepository
	adsRepo        *repository.AdsRepository
	redisClient    *redis.Client
	cfg            config.SettlementConfig
	logger         *zap.Logger
}

// NewService 创建结算服务
func NewService(
	db *gorm.DB,
	periodRepo *repository.PeriodRepository,
	settlementRepo *repository.SettlementRepository,
	orderRepo *repository.OrderRepository,
	adsRepo *repository.AdsRepository,
	redisClient *redis.Client,
	cfg config.SettlementConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:             db,
		periodRepo:     periodRepo,
		settlementRepo: settlementRepo,
		orderRepo:      orderRepo,
		adsRepo:        adsRepo,
		redisClient:    redisClient,
		cfg:            cfg,
		logger:         logger,
	}
}

// EnsureActivePeriod 保证存在一个进行中的周期，没有则按当前时间创建
func (s *Service) EnsureActivePeriod(ctx context.Context) (*models.WeeklyPeriod, error) {
	period, err := s.periodRepo.GetActive(ctx)
	if err == nil {
		return period, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	start, end := WeekPeriodFor(time.Now(), s.cfg.Location())
	period = &models.WeeklyPeriod{
		StartDate: start,
		EndDate:   end,
		Status:    models.PeriodStatusActive,
	}
	if err := s.periodRepo.Create(ctx, period); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("创建结算周期",
		zap.Int64("period_id", period.ID),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return period, nil
}

// CloseCurrentPeriod 关账
// 全局串行：Redis 锁保证单实例在途，数据库守卫更新兜底并发关账；
// 结算单生成、周期关闭、下一周期创建在同一事务内，要么全部生效要么全部回滚
func (s *Service) CloseCurrentPeriod(ctx context.Context) (*models.WeeklyPeriod, error) {
	lock, err := cache.TryLock(ctx, s.redisClient, closeLockKey, uuid.New().String(), s.cfg.CloseLockDuration())
	if err != nil {
		return nil, errors.ErrCacheError.WithError(err)
	}
	if lock == nil {
		return nil, errors.ErrPeriodCloseInProgress
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放关账锁失败", zap.Error(err))
		}
	}()

	started := time.Now()

	period, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNoActivePeriod
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 结算单只生成一次
	exists, err := s.settlementRepo.ExistsForPeriod(ctx, period.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrSettlementExists
	}

	settled, err := s.orderRepo.ListForShopSettlement(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	cancelled, err := s.orderRepo.ListCancelledInWindow(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	delivered, err := s.orderRepo.ListForRiderSettlement(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	ads, err := s.adsRepo.ListActiveOverlapping(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	shopSettlements := AggregateShopSettlements(period.ID, period.StartDate, period.EndDate, settled, cancelled, ads, s.cfg.Location())
	riderSettlements := AggregateRiderSettlements(period.ID, delivered)

	nextStart := NextPeriodStart(period.EndDate)
	nextPeriod := &models.WeeklyPeriod{
		StartDate: nextStart,
		EndDate:   nextStart.AddDate(0, 0, 7).Add(-time.Second),
		Status:    models.PeriodStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.periodRepo.CloseGuarded(ctx, tx, period.ID, time.Now())
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if affected == 0 {
			return errors.ErrPeriodAlreadyClosed
		}

		if err := s.settlementRepo.CreateShopSettlementsTx(ctx, tx, shopSettlements); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if err := s.settlementRepo.CreateRiderSettlementsTx(ctx, tx, riderSettlements); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		return s.periodRepo.CreateTx(ctx, tx, nextPeriod)
	})
	if err != nil {
		return nil, err
	}

	m := metrics.GetMetrics()
	m.RecordSettlements("shop", len(shopSettlements))
	m.RecordSettlements("rider", len(riderSettlements))
	m.ObservePeriodClose(time.Since(started))

	s.logger.Info("周期关账完成",
		zap.Int64("period_id", period.ID),
		zap.Int("shop_settlements", len(shopSettlements)),
		zap.Int("rider_settlements", len(riderSettlements)),
		zap.Int64("next_period_id", nextPeriod.ID),
		zap.Duration("elapsed", time.Since(started)),
	)

	return s.periodRepo.GetByID(ctx, period.ID)
}

// MarkShopSettled 店铺结算单打款确认
// 周期下全部结算单结清后周期进入 settled
func (s *Service) MarkShopSettled(ctx context.Context, settlementID int64, notes *string) (*models.ShopSettlement, error) {
	settlement, err := s.settlementRepo.GetShopSettlement(ctx, settlementID)
	if err != nil {
		return nil, errors.ErrSettlementNotFound.WithError(err)
	}

	affected, err := s.settlementRepo.MarkShopSettledGuarded(ctx, settlementID, time.Now(), notes)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return nil, errors.ErrSettlementNotPending
	}

	s.maybeSettlePeriod(ctx, settlement.PeriodID)
	return s.settlementRepo.GetShopSettlement(ctx, settlementID)
}

// MarkRiderSettled 骑手结算单打款确认
func (s *Service) MarkRiderSettled(ctx context.Context, settlementID int64, notes *string) (*models.RiderSettlement, error) {
	settlement, err := s.settlementRepo.GetRiderSettlement(ctx, settlementID)
	if err != nil {
		return nil, errors.ErrSettlementNotFound.WithError(err)
	}

	affected, err := s.settlementRepo.MarkRiderSettledGuarded(ctx, settlementID, time.Now(), notes)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return nil, errors.ErrSettlementNotPending
	}

	s.maybeSettlePeriod(ctx, settlement.PeriodID)
	return s.settlementRepo.GetRiderSettlement(ctx, settlementID)
}

// maybeSettlePeriod 周期下不再有待打款结算单时标记周期结清
func (s *Service) maybeSettlePeriod(ctx context.Context, periodID int64) {
	pending, err := s.settlementRepo.CountPendingByPeriod(ctx, periodID)
	if err != nil {
		s.logger.Warn("统计待打款结算单失败", zap.Int64("period_id", periodID), zap.Error(err))
		return
	}
	if pending > 0 {
		return
	}
	if err := s.periodRepo.MarkSettled(ctx, periodID); err != nil {
		s.logger.Warn("标记周期结清失败", zap.Int64("period_id", periodID), zap.Error(err))
	}
}

// GetPeriod 获取周期
func (s *Service) GetPeriod(ctx context.Context, periodID int64) (*models.WeeklyPeriod, error) {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, errors.ErrPeriodNotFound.WithError(err)
	}
	return period, nil
}

// ListPeriods 周期列表
func (s *Service) ListPeriods(ctx context.Context, offset, limit int, status string) ([]*models.WeeklyPeriod, int64, error) {
	return s.periodRepo.List(ctx, offset, limit, status)
}

// ListShopSettlements 店铺结算单列表
func (s *Service) ListShopSettlements(ctx context.Context, periodID int64, status string, offset, limit int) ([]*models.ShopSettlement, int64, error) {
	return s.settlementRepo.ListShopSettlements(ctx, periodID, status, offset, limit)
}

// ListRiderSettlements 骑手结算单列表
func (s *Service) ListRiderSettlements(ctx context.Context, periodID int64, status string, offset, limit int) ([]*models.RiderSettlement, int64, error) {
	return s.settlementRepo.ListRiderSettlements(ctx, periodID, status, offset, limit)
}

// GetShopSettlementForShop 店铺查询自己某周期的结算单
func (s *Service) GetShopSettlementForShop(ctx context.Context, shopID, periodID int64) (*models.ShopSettlement, error) {
	settlement, err := s.settlementRepo.GetShopSettlementByPeriod(ctx, shopID, periodID)
	if err != nil {
		return nil, errors.ErrSettlementNotFound.WithError(err)
	}
	return settlement, nil
}

// GetRiderSettlementForRider 骑手查询自己某周期的结算单
func (s *Service) GetRiderSettlementForRider(ctx context.Context, riderID, periodID int64) (*models.RiderSettlement, error) {
	settlement, err := s.settlementRepo.GetRiderSettlementByPeriod(ctx, riderID, periodID)
	if err != nil {
		return nil, errors.ErrSettlementNotFound.WithError(err)
	}
	return settlement, nil
}

// GetPeriodSummary 周期财务汇总
func (s *Service) GetPeriodSummary(ctx context.Context, periodID int64) (*models.PeriodSummary, error) {
	if _, err := s.periodRepo.GetByID(ctx, periodID); err != nil {
		return nil, errors.ErrPeriodNotFound.WithError(err)
	}

	shops, _, err := s.settlementRepo.ListShopSettlements(ctx, periodID, "", 0, 10000)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	riders, _, err := s.settlementRepo.ListRiderSettlements(ctx, periodID, "", 0, 10000)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return SummarizePeriod(periodID, shops, riders), nil
}
