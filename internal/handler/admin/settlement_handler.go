// Package admin 管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	settlementService "github.com/dumeirei/delivery-market-backend/internal/service/settlement"
)

// SettlementHandler 结算管理处理器
type SettlementHandler struct {
	settlementService *settlementService.Service
}

// NewSettlementHandler 创建结算管理处理器
func NewSettlementHandler(settlementSvc *settlementService.Service) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementSvc}
}

// ClosePeriod 手动关账
// @Summary 关闭当前结算周期并生成结算单
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.WeeklyPeriod}
// @Router /api/v1/admin/settlement/periods/close [post]
func (h *SettlementHandler) ClosePeriod(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	period, err := h.settlementService.CloseCurrentPeriod(c.Request.Context())
	handler.MustSucceedWithMessage(c, err, "关账完成", period)
}

// ListPeriods 周期列表
// @Summary 获取结算周期列表
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "周期状态 active/closed/settled"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/settlement/periods [get]
func (h *SettlementHandler) ListPeriods(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	periods, total, err := h.settlementService.ListPeriods(c.Request.Context(), (page-1)*pageSize, pageSize, c.Query("status"))
	handler.MustSucceedPage(c, err, periods, total, page, pageSize)
}

// GetPeriod 周期详情
// @Summary 获取结算周期详情
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Param id path int true "周期ID"
// @Success 200 {object} response.Response{data=models.WeeklyPeriod}
// @Router /api/v1/admin/settlement/periods/{id} [get]
func (h *SettlementHandler) GetPeriod(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	periodID, ok := handler.ParseID(c, "结算周期")
	if !ok {
		return
	}

	period, err := h.settlementService.GetPeriod(c.Request.Context(), periodID)
	handler.MustSucceed(c, err, period)
}

// GetPeriodSummary 周期财务汇总
// @Summary 获取周期财务汇总（平台净佣金等）
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Param id path int true "周期ID"
// @Success 200 {object} response.Response{data=models.PeriodSummary}
// @Router /api/v1/admin/settlement/periods/{id}/summary [get]
func (h *SettlementHandler) GetPeriodSummary(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	periodID, ok := handler.ParseID(c, "结算周期")
	if !ok {
		return
	}

	summary, err := h.settlementService.GetPeriodSummary(c.Request.Context(), periodID)
	handler.MustSucceed(c, err, summary)
}

// ListShopSettlements 店铺结算单列表
// @Summary 获取周期内的店铺结算单
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Param id path int true "周期ID"
// @Param status query string false "结算单状态 pending/settled"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/settlement/periods/{id}/shops [get]
func (h *SettlementHandler) ListShopSettlements(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	periodID, ok := handler.ParseID(c, "结算周期")
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	settlements, total, err := h.settlementService.ListShopSettlements(
		c.Request.Context(), periodID, c.Query("status"), (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, settlements, total, page, pageSize)
}

// ListRiderSettlements 骑手结算单列表
// @Summary 获取周期内的骑手结算单
// @Tags 管理-结算
// @Produce json
// @Security Bearer
// @Param id path int true "周期ID"
// @Param status query string false "结算单状态 pending/settled"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/settlement/periods/{id}/riders [get]
func (h *SettlementHandler) ListRiderSettlements(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	periodID, ok := handler.ParseID(c, "结算周期")
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	settlements, total, err := h.settlementService.ListRiderSettlements(
		c.Request.Context(), periodID, c.Query("status"), (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, settlements, total, page, pageSize)
}

// markSettledRequest 打款确认请求
type markSettledRequest struct {
	Notes *string `json:"notes"`
}

// MarkShopSettled 店铺结算单打款确认
// @Summary 确认店铺结算单已打款
// @Tags 管理-结算
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Param request body markSettledRequest false "备注"
// @Success 200 {object} response.Response{data=models.ShopSettlement}
// @Router /api/v1/admin/settlement/shops/{id}/settle [post]
func (h *SettlementHandler) MarkShopSettled(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	settlementID, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	var req markSettledRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	settlement, err := h.settlementService.MarkShopSettled(c.Request.Context(), settlementID, req.Notes)
	handler.MustSucceedWithMessage(c, err, "打款确认成功", settlement)
}

// MarkRiderSettled 骑手结算单打款确认
// @Summary 确认骑手结算单已打款
// @Tags 管理-结算
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "结算单ID"
// @Param request body markSettledRequest false "备注"
// @Success 200 {object} response.Response{data=models.RiderSettlement}
// @Router /api/v1/admin/settlement/riders/{id}/settle [post]
func (h *SettlementHandler) MarkRiderSettled(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	settlementID, ok := handler.ParseID(c, "结算单")
	if !ok {
		return
	}

	var req markSettledRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	settlement, err := h.settlementService.MarkRiderSettled(c.Request.Context(), settlementID, req.Notes)
	handler.MustSucceedWithMessage(c, err, "打款确认成功", settlement)
}
