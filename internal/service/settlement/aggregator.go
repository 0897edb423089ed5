package settlement

import (
	"sort"
	"time"

	"github.com/dumeirei/delivery-market-backend/internal/common/utils"
	"github.com/dumeirei/delivery-market-backend/internal/models"
)

// 结算聚合，纯计算，无 I/O
// netAmount 采用窄口径：grossSales − totalCommission。
// 积分抵扣、免配送费、广告费只作为报表列记录，不参与店铺应付额
// （这些成本由平台佣金线吸收，广告费单独计收）

// AggregateShopSettlements 按店铺聚合窗口内的订单与广告
// settled 为窗口内已到店铺收款口径的订单，cancelled 为窗口内取消的订单
func AggregateShopSettlements(
	periodID int64,
	windowStart, windowEnd time.Time,
	settled []*models.Order,
	cancelled []*models.Order,
	ads []*models.Ad,
	loc *time.Location,
) []*models.ShopSettlement {
	byShop := make(map[int64]*models.ShopSettlement)

	get := func(shopID int64) *models.ShopSettlement {
		s, ok := byShop[shopID]
		if !ok {
			s = &models.ShopSettlement{
				ShopID:   shopID,
				PeriodID: periodID,
				Status:   models.SettlementStatusPending,
			}
			byShop[shopID] = s
		}
		return s
	}

	for _, order := range settled {
		s := get(order.ShopID)
		s.TotalOrders++
		s.SettledOrders++
		s.GrossSales += order.Subtotal
		s.TotalCommission += order.ShopCommission
		s.PointsDiscounts += order.PointsDiscount
		s.FreeDeliveryCost += order.FreeDeliveryCost()
	}

	for _, order := range cancelled {
		s := get(order.ShopID)
		s.TotalOrders++
		s.CancelledOrders++
	}

	for _, ad := range ads {
		days := overlapDays(ad.StartDate, ad.EndDate, windowStart, windowEnd, loc)
		if days <= 0 {
			continue
		}
		s := get(ad.ShopID)
		s.AdsCost += ad.DailyCost * float64(days)
	}

	settlements := make([]*models.ShopSettlement, 0, len(byShop))
	for _, s := range sortedByShop(byShop) {
		s.GrossSales = utils.Round2(s.GrossSales)
		s.TotalCommission = utils.Round2(s.TotalCommission)
		s.PointsDiscounts = utils.Round2(s.PointsDiscounts)
		s.FreeDeliveryCost = utils.Round2(s.FreeDeliveryCost)
		s.AdsCost = utils.Round2(s.AdsCost)
		s.NetAmount = utils.Round2(s.GrossSales - s.TotalCommission)
		settlements = append(settlements, s)
	}
	return settlements
}

// AggregateRiderSettlements 按骑手聚合窗口内的配送订单
// 骑手全额保留配送费，不扣平台抽成
func AggregateRiderSettlements(periodID int64, delivered []*models.Order) []*models.RiderSettlement {
	byRider := make(map[int64]*models.RiderSettlement)

	for _, order := range delivered {
		if !order.HasRider() {
			continue
		}
		riderID := *order.RiderID
		s, ok := byRider[riderID]
		if !ok {
			s = &models.RiderSettlement{
				RiderID:  riderID,
				PeriodID: periodID,
				Status:   models.SettlementStatusPending,
			}
			byRider[riderID] = s
		}
		s.DeliveryCount++
		s.TotalDeliveryFees += order.DeliveryFee
	}

	ids := make([]int64, 0, len(byRider))
	for id := range byRider {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	settlements := make([]*models.RiderSettlement, 0, len(ids))
	for _, id := range ids {
		s := byRider[id]
		s.TotalDeliveryFees = utils.Round2(s.TotalDeliveryFees)
		s.NetPayout = s.TotalDeliveryFees
		settlements = append(settlements, s)
	}
	return settlements
}

// SummarizePeriod 平台视角的周期财务汇总
// 平台净佣金 = max(0, Σ佣金 − Σ积分抵扣 − Σ免配送费 + Σ广告费)
func SummarizePeriod(periodID int64, shops []*models.ShopSettlement, riders []*models.RiderSettlement) *models.PeriodSummary {
	summary := &models.PeriodSummary{PeriodID: periodID}

	for _, s := range shops {
		summary.TotalOrders += s.TotalOrders
		summary.SettledOrders += s.SettledOrders
		summary.CancelledOrders += s.CancelledOrders
		summary.GrossSales += s.GrossSales
		summary.TotalCommission += s.TotalCommission
		summary.PointsDiscounts += s.PointsDiscounts
		summary.FreeDeliveryCost += s.FreeDeliveryCost
		summary.AdsRevenue += s.AdsCost
		summary.ShopPayable += s.NetAmount
	}
	for _, r := range riders {
		summary.RiderPayable += r.NetPayout
	}

	admin := summary.TotalCommission - summary.PointsDiscounts - summary.FreeDeliveryCost + summary.AdsRevenue
	if admin < 0 {
		admin = 0
	}
	summary.AdminCommission = utils.Round2(admin)

	summary.GrossSales = utils.Round2(summary.GrossSales)
	summary.TotalCommission = utils.Round2(summary.TotalCommission)
	summary.PointsDiscounts = utils.Round2(summary.PointsDiscounts)
	summary.FreeDeliveryCost = utils.Round2(summary.FreeDeliveryCost)
	summary.AdsRevenue = utils.Round2(summary.AdsRevenue)
	summary.ShopPayable = utils.Round2(summary.ShopPayable)
	summary.RiderPayable = utils.Round2(summary.RiderPayable)

	return summary
}

// sortedByShop 按店铺 ID 升序返回聚合结果，保证输出稳定
func sortedByShop(byShop map[int64]*models.ShopSettlement) []*models.ShopSettlement {
	ids := make([]int64, 0, len(byShop))
	for id := range byShop {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*models.ShopSettlement, 0, len(ids))
	for _, id := range ids {
		out = append(out, byShop[id])
	}
	return out
}
