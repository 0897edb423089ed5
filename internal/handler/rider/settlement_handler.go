package rider

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	settlementService "github.com/dumeirei/delivery-market-backend/internal/service/settlement"
)

// SettlementHandler 骑手结算处理器
type SettlementHandler struct {
	settlementService *settlementService.Service
}

// NewSettlementHandler 创建骑手结算处理器
func NewSettlementHandler(settlementSvc *settlementService.Service) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementSvc}
}

// ListPeriods 结算周期列表
// @Summary 获取结算周期列表
// @Tags 骑手-结算
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/rider/settlement/periods [get]
func (h *SettlementHandler) ListPeriods(c *gin.Context) {
	if _, ok := handler.RequireRiderID(c); !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	periods, total, err := h.settlementService.ListPeriods(c.Request.Context(), (page-1)*pageSize, pageSize, c.Query("status"))
	handler.MustSucceedPage(c, err, periods, total, page, pageSize)
}

// GetSettlement 查询自己某周期的结算单
// @Summary 获取自己在某周期的结算单
// @Tags 骑手-结算
// @Produce json
// @Security Bearer
// @Param period_id path int true "周期ID"
// @Success 200 {object} response.Response{data=models.RiderSettlement}
// @Router /api/v1/rider/settlement/periods/{period_id} [get]
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	riderID, ok := handler.RequireRiderID(c)
	if !ok {
		return
	}
	periodID, ok := handler.ParseParamID(c, "period_id", "结算周期")
	if !ok {
		return
	}

	settlement, err := h.settlementService.GetRiderSettlementForRider(c.Request.Context(), riderID, periodID)
	handler.MustSucceed(c, err, settlement)
}
