// Package customer 顾客端 HTTP Handler
package customer

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/qrcode"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	orderService "github.com/dumeirei/delivery-market-backend/internal/service/order"
)

// OrderHandler 顾客订单处理器
type OrderHandler struct {
	orderService *orderService.Service
	qrGenerator  *qrcode.Generator
}

// NewOrderHandler 创建顾客订单处理器
func NewOrderHandler(orderSvc *orderService.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderSvc,
		qrGenerator:  qrcode.NewGenerator(qrcode.WithSize(256)),
	}
}

// CreateOrder 下单
// @Summary 顾客下单，可用积分抵扣
// @Tags 顾客-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body orderService.CreateOrderRequest true "下单请求"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/customer/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}

	var req orderService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.CustomerID = customerID

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	handler.MustSucceedWithMessage(c, err, "下单成功", order)
}

// PreviewOrder 下单试算
// @Summary 下单试算：应付金额与可抵扣积分上限
// @Tags 顾客-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body orderService.PreviewOrderRequest true "试算请求"
// @Success 200 {object} response.Response{data=orderService.OrderPreview}
// @Router /api/v1/customer/orders/preview [post]
func (h *OrderHandler) PreviewOrder(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}

	var req orderService.PreviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.CustomerID = customerID

	preview, err := h.orderService.PreviewOrder(c.Request.Context(), &req)
	handler.MustSucceed(c, err, preview)
}

// cancelOrderRequest 取消订单请求
type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// CancelOrder 取消订单
// @Summary 取消订单（骑手取货前），已用积分原路退回
// @Tags 顾客-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body cancelOrderRequest false "取消原因"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/customer/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, customerID) {
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

// ConfirmReceived 确认收货
// @Summary 确认收货，订单完成并发放积分
// @Tags 顾客-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/customer/orders/{id}/complete [post]
func (h *OrderHandler) ConfirmReceived(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	if !h.ownOrder(c, orderID, customerID) {
		return
	}

	order, err := h.orderService.CompleteOrder(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "订单已完成", order)
}

// ListOrders 订单列表
// @Summary 获取自己的订单列表
// @Tags 顾客-订单
// @Produce json
// @Security Bearer
// @Param status query string false "订单状态"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/customer/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		status = &st
	}

	page, pageSize := handler.ParsePagination(c)
	orders, total, err := h.orderService.ListCustomerOrders(c.Request.Context(), customerID, (page-1)*pageSize, pageSize, status)
	handler.MustSucceedPage(c, err, orders, total, page, pageSize)
}

// GetOrder 订单详情
// @Summary 获取自己的订单详情
// @Tags 顾客-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/customer/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if handler.HandleError(c, err) {
		return
	}
	if order.CustomerID != customerID {
		response.Forbidden(c, "无权访问该订单")
		return
	}
	response.Success(c, order)
}

// GetOrderQRCode 订单交接二维码
// @Summary 生成订单号二维码，骑手送达时核对
// @Tags 顾客-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/customer/orders/{id}/qrcode [get]
func (h *OrderHandler) GetOrderQRCode(c *gin.Context) {
	customerID, ok := handler.RequireCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if handler.HandleError(c, err) {
		return
	}
	if order.CustomerID != customerID {
		response.Forbidden(c, "无权访问该订单")
		return
	}

	dataURL, err := h.qrGenerator.GenerateDataURL(order.OrderNo)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, gin.H{
		"order_no": order.OrderNo,
		"qrcode":   dataURL,
	})
}

// ownOrder 校验订单归属当前顾客，不符时发送错误响应
func (h *OrderHandler) ownOrder(c *gin.Context, orderID, customerID int64) bool {
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if handler.HandleError(c, err) {
		return false
	}
	if order.CustomerID != customerID {
		response.Forbidden(c, "无权访问该订单")
		return false
	}
	return true
}
