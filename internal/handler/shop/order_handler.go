// Package shop 商户端 HTTP Handler
package shop

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	orderService "github.com/dumeirei/delivery-market-backend/internal/service/order"
)

// OrderHandler 商户订单处理器
type OrderHandler struct {
	orderService *orderService.Service
}

// NewOrderHandler 创建商户订单处理器
func NewOrderHandler(orderSvc *orderService.Service) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

// acceptOrderRequest 接单请求
type acceptOrderRequest struct {
	RiderID int64 `json:"rider_id" binding:"required"`
}

// AcceptOrder 接单并分配骑手
// @Summary 接单并分配骑手
// @Tags 商户-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body acceptOrderRequest true "接单请求"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/shop/orders/{id}/accept [post]
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, shopID) {
		return
	}

	var req acceptOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.AcceptOrder(c.Request.Context(), orderID, req.RiderID)
	handler.MustSucceedWithMessage(c, err, "接单成功", order)
}

// StartPreparing 开始备餐
// @Summary 开始备餐
// @Tags 商户-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/shop/orders/{id}/prepare [post]
func (h *OrderHandler) StartPreparing(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, shopID) {
		return
	}

	order, err := h.orderService.StartPreparing(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, order)
}

// ConfirmCashReceived 确认收到骑手转交的货款
// @Summary 确认收到货款，订单进入已收款状态
// @Tags 商户-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/shop/orders/{id}/confirm-cash [post]
func (h *OrderHandler) ConfirmCashReceived(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, shopID) {
		return
	}

	order, err := h.orderService.ConfirmShopPaid(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "已确认收款", order)
}

// cancelOrderRequest 取消订单请求
type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// CancelOrder 商户取消订单
// @Summary 取消订单（骑手取货前）
// @Tags 商户-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body cancelOrderRequest false "取消原因"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/shop/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, shopID) {
		return
	}

	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, req.Reason)
	handler.MustSucceedWithMessage(c, err, "订单已取消", order)
}

// ListPendingOrders 待接单列表
// @Summary 获取待接单列表
// @Tags 商户-订单
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Order}
// @Router /api/v1/shop/orders/pending [get]
func (h *OrderHandler) ListPendingOrders(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListPendingOrders(c.Request.Context(), shopID, 50)
	handler.MustSucceed(c, err, orders)
}

// ListOrders 店铺订单列表
// @Summary 获取自己店铺的订单列表
// @Tags 商户-订单
// @Produce json
// @Security Bearer
// @Param status query string false "订单状态"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/shop/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		status = &st
	}

	page, pageSize := handler.ParsePagination(c)
	orders, total, err := h.orderService.ListShopOrders(c.Request.Context(), shopID, (page-1)*pageSize, pageSize, status)
	handler.MustSucceedPage(c, err, orders, total, page, pageSize)
}

// ownOrder 校验订单归属当前店铺，不符时发送错误响应
func (h *OrderHandler) ownOrder(c *gin.Context, orderID, shopID int64) bool {
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if handler.HandleError(c, err) {
		return false
	}
	if order.ShopID != shopID {
		response.Forbidden(c, "无权访问该订单")
		return false
	}
	return true
}
