// Package rider 骑手端 HTTP Handler
package rider

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	orderService "github.com/dumeirei/delivery-market-backend/internal/service/order"
)

// OrderHandler 骑手订单处理器
type OrderHandler struct {
	orderService *orderService.Service
}

// NewOrderHandler 创建骑手订单处理器
func NewOrderHandler(orderSvc *orderService.Service) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

// MarkPickedUp 取货
// @Summary 骑手取货，取货后订单不可取消
// @Tags 骑手-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/rider/orders/{id}/pickup [post]
func (h *OrderHandler) MarkPickedUp(c *gin.Context) {
	riderID, ok := handler.RequireRiderID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, riderID) {
		return
	}

	order, err := h.orderService.MarkPickedUp(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "取货成功", order)
}

// CollectCash 向顾客收取货款
// @Summary 标记已向顾客收取货款
// @Tags 骑手-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/rider/orders/{id}/collect-cash [post]
func (h *OrderHandler) CollectCash(c *gin.Context) {
	riderID, ok := handler.RequireRiderID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, riderID) {
		return
	}

	err := h.orderService.CollectCash(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "已收款", nil)
}

// HandCashToShop 向店铺转交货款
// @Summary 标记已向店铺转交货款
// @Tags 骑手-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/rider/orders/{id}/hand-cash [post]
func (h *OrderHandler) HandCashToShop(c *gin.Context) {
	riderID, ok := handler.RequireRiderID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, riderID) {
		return
	}

	err := h.orderService.HandCashToShop(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "已转交货款", nil)
}

// ListOrders 骑手订单列表
// @Summary 获取自己的配送订单列表
// @Tags 骑手-订单
// @Produce json
// @Security Bearer
// @Param status query string false "订单状态"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/rider/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	riderID, ok := handler.RequireRiderID(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		status = &st
	}

	page, pageSize := handler.ParsePagination(c)
	orders, total, err := h.orderService.ListRiderOrders(c.Request.Context(), riderID, (page-1)*pageSize, pageSize, status)
	handler.MustSucceedPage(c, err, orders, total, page, pageSize)
}

// ownOrder 校验订单已分配给当前骑手，不符时发送错误响应
func (h *OrderHandler) ownOrder(c *gin.Context, orderID, riderID int64) bool {
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if handler.HandleError(c, err) {
		return false
	}
	if order.RiderID == nil || *order.RiderID != riderID {
		response.Forbidden(c, "无权访问该订单")
		return false
	}
	return true
}
