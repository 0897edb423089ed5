package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	adminService "github.com/dumeirei/delivery-market-backend/internal/service/admin"
	authService "github.com/dumeirei/delivery-market-backend/internal/service/auth"
	pointsService "github.com/dumeirei/delivery-market-backend/internal/service/points"
)

// PartyHandler 商户/骑手/顾客管理处理器
type PartyHandler struct {
	adminService  *adminService.Service
	authService   *authService.Service
	pointsService *pointsService.Service
}

// NewPartyHandler 创建管理处理器
func NewPartyHandler(adminSvc *adminService.Service, authSvc *authService.Service, pointsSvc *pointsService.Service) *PartyHandler {
	return &PartyHandler{
		adminService:  adminSvc,
		authService:   authSvc,
		pointsService: pointsSvc,
	}
}

// CreateShop 创建店铺
// @Summary 创建店铺
// @Tags 管理-商户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.CreateShopRequest true "创建请求"
// @Success 200 {object} response.Response{data=models.Shop}
// @Router /api/v1/admin/shops [post]
func (h *PartyHandler) CreateShop(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req adminService.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shop, err := h.adminService.CreateShop(c.Request.Context(), &req)
	handler.MustSucceed(c, err, shop)
}

// ListShops 店铺列表
// @Summary 获取店铺列表
// @Tags 管理-商户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/shops [get]
func (h *PartyHandler) ListShops(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	shops, total, err := h.adminService.ListShops(c.Request.Context(), (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, shops, total, page, pageSize)
}

// commissionRateRequest 佣金率调整请求
type commissionRateRequest struct {
	CommissionRate float64 `json:"commission_rate" binding:"required"`
}

// UpdateShopCommissionRate 调整店铺佣金率
// @Summary 调整店铺佣金率
// @Tags 管理-商户
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "店铺ID"
// @Param request body commissionRateRequest true "佣金率"
// @Success 200 {object} response.Response{data=models.Shop}
// @Router /api/v1/admin/shops/{id}/commission-rate [put]
func (h *PartyHandler) UpdateShopCommissionRate(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	shopID, ok := handler.ParseID(c, "店铺")
	if !ok {
		return
	}

	var req commissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shop, err := h.adminService.UpdateShopCommissionRate(c.Request.Context(), shopID, req.CommissionRate)
	handler.MustSucceed(c, err, shop)
}

// CreateRider 创建骑手
// @Summary 创建骑手
// @Tags 管理-骑手
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.CreateRiderRequest true "创建请求"
// @Success 200 {object} response.Response{data=models.Rider}
// @Router /api/v1/admin/riders [post]
func (h *PartyHandler) CreateRider(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req adminService.CreateRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rider, err := h.adminService.CreateRider(c.Request.Context(), &req)
	handler.MustSucceed(c, err, rider)
}

// ListRiders 骑手列表
// @Summary 获取骑手列表
// @Tags 管理-骑手
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/riders [get]
func (h *PartyHandler) ListRiders(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	riders, total, err := h.adminService.ListRiders(c.Request.Context(), (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, riders, total, page, pageSize)
}

// ListCustomers 顾客列表
// @Summary 获取顾客列表
// @Tags 管理-顾客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/customers [get]
func (h *PartyHandler) ListCustomers(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	customers, total, err := h.adminService.ListCustomers(c.Request.Context(), (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, customers, total, page, pageSize)
}

// adjustPointsRequest 积分人工调整请求
type adjustPointsRequest struct {
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description" binding:"required,max=255"`
}

// AdjustCustomerPoints 人工调整顾客积分
// @Summary 人工调整顾客积分（正数增加，负数扣减）
// @Tags 管理-顾客
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "顾客ID"
// @Param request body adjustPointsRequest true "调整请求"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/customers/{id}/points/adjust [post]
func (h *PartyHandler) AdjustCustomerPoints(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	customerID, ok := handler.ParseID(c, "顾客")
	if !ok {
		return
	}

	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	err := h.pointsService.Adjust(c.Request.Context(), customerID, req.Points, req.Description)
	handler.MustSucceedWithMessage(c, err, "积分调整成功", nil)
}

// CreateAdmin 创建管理员
// @Summary 创建管理员账号
// @Tags 管理-系统
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.CreateAdminRequest true "创建请求"
// @Success 200 {object} response.Response{data=models.Admin}
// @Router /api/v1/admin/admins [post]
func (h *PartyHandler) CreateAdmin(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req authService.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	admin, err := h.authService.CreateAdmin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, admin)
}

// ListOperationLogs 操作审计日志列表
// @Summary 获取管理端操作审计日志
// @Tags 管理-系统
// @Produce json
// @Security Bearer
// @Param admin_id query int false "管理员ID"
// @Param module query string false "模块"
// @Param action query string false "操作"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/operation-logs [get]
func (h *PartyHandler) ListOperationLogs(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	filters := make(map[string]interface{})
	adminID, ok := handler.ParseQueryID(c, "admin_id", "管理员")
	if !ok {
		return
	}
	if adminID != nil {
		filters["admin_id"] = *adminID
	}
	if module := c.Query("module"); module != "" {
		filters["module"] = module
	}
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}

	page, pageSize := handler.ParsePagination(c)
	logs, total, err := h.adminService.ListOperationLogs(c.Request.Context(), (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, logs, total, page, pageSize)
}
