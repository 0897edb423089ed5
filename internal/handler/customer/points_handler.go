package customer

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	pointsService "github.com/dumeirei/delivery-market-backend/internal/service/points"
)

// PointsHandler 顾客积分处理器
type PointsHandler struct {
	pointsService *pointsService.Service
}

// NewPointsHandler 创建顾客积分处理器
func NewPointsHandler(pointsSvc *pointsService.Service) *PointsHandler {
	return &PointsHandler{pointsService: pointsSvc}
}

// GetBalance 积分余额
// @Summary 获取积分余额
// @Tags 顾客-积分
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/customer/points/balance [get]
func (h *PointsHandler) GetBalance(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}

	balance, err := h.pointsService.BalanceFor(c.Request.Context(), customerID)
	handler.MustSucceed(c, err, gin.H{"balance": balance})
}

// GetHistory 积分流水
// @Summary 获取积分流水（新到旧）
// @Tags 顾客-积分
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/customer/points/history [get]
func (h *PointsHandler) GetHistory(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	transactions, total, err := h.pointsService.History(c.Request.Context(), customerID, (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, transactions, total, page, pageSize)
}
