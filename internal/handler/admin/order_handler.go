package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	orderService "github.com/dumeirei/delivery-market-backend/internal/service/order"
)

// OrderHandler 订单管理处理器
type OrderHandler struct {
	orderService *orderService.Service
}

// NewOrderHandler 创建订单管理处理器
func NewOrderHandler(orderSvc *orderService.Service) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

// ListOrders 订单列表
// @Summary 获取订单列表
// @Tags 管理-订单
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "订单状态"
// @Param shop_id query int false "店铺ID"
// @Param rider_id query int false "骑手ID"
// @Param customer_id query int false "顾客ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = models.OrderStatus(status)
	}
	for _, key := range []string{"shop_id", "rider_id", "customer_id"} {
		id, ok := handler.ParseQueryID(c, key, "筛选")
		if !ok {
			return
		}
		if id != nil {
			filters[key] = *id
		}
	}

	page, pageSize := handler.ParsePagination(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, orders, total, page, pageSize)
}

// GetOrder 订单详情
// @Summary 获取订单详情
// @Tags 管理-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/admin/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, order)
}
