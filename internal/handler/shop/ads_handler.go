package shop

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/handler"
	"github.com/dumeirei/delivery-market-backend/internal/common/response"
	adsService "github.com/dumeirei/delivery-market-backend/internal/service/ads"
)

// AdsHandler 商户广告处理器
type AdsHandler struct {
	adsService *adsService.Service
}

// NewAdsHandler 创建商户广告处理器
func NewAdsHandler(adsSvc *adsService.Service) *AdsHandler {
	return &AdsHandler{adsService: adsSvc}
}

// createAdRequest 创建广告请求，日期为 YYYY-MM-DD
type createAdRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	DailyCost float64 `json:"daily_cost" binding:"required"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   string  `json:"end_date" binding:"required"`
}

// CreateAd 创建广告投放
// @Summary 创建广告投放，费用按天计入周结算
// @Tags 商户-广告
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createAdRequest true "创建请求"
// @Success 200 {object} response.Response{data=models.Ad}
// @Router /api/v1/shop/ads [post]
func (h *AdsHandler) CreateAd(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}

	var req createAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	startDate, err := handler.ParseDate(req.StartDate)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return
	}
	endDate, err := handler.ParseDate(req.EndDate)
	if err != nil {
		response.BadRequest(c, "无效的结束日期格式")
		return
	}

	ad, err := h.adsService.CreateAd(c.Request.Context(), &adsService.CreateAdRequest{
		ShopID:    shopID,
		Name:      req.Name,
		DailyCost: req.DailyCost,
		StartDate: startDate,
		EndDate:   endDate,
	})
	handler.MustSucceed(c, err, ad)
}

// ListAds 广告列表
// @Summary 获取自己的广告列表
// @Tags 商户-广告
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/shop/ads [get]
func (h *AdsHandler) ListAds(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	ads, total, err := h.adsService.ListShopAds(c.Request.Context(), shopID, (page-1)*pageSize, pageSize)
	handler.MustSucceedPage(c, err, ads, total, page, pageSize)
}

// PauseAd 暂停投放
// @Summary 暂停广告投放
// @Tags 商户-广告
// @Produce json
// @Security Bearer
// @Param id path int true "广告ID"
// @Success 200 {object} response.Response
// @Router /api/v1/shop/ads/{id}/pause [post]
func (h *AdsHandler) PauseAd(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	adID, ok := handler.ParseID(c, "广告")
	if !ok {
		return
	}

	err := h.adsService.PauseAd(c.Request.Context(), shopID, adID)
	handler.MustSucceedWithMessage(c, err, "广告已暂停", nil)
}

// ResumeAd 恢复投放
// @Summary 恢复广告投放
// @Tags 商户-广告
// @Produce json
// @Security Bearer
// @Param id path int true "广告ID"
// @Success 200 {object} response.Response
// @Router /api/v1/shop/ads/{id}/resume [post]
func (h *AdsHandler) ResumeAd(c *gin.Context) {
	shopID, ok := handler.RequireShopID(c)
	if !ok {
		return
	}
	adID, ok := handler.ParseID(c, "广告")
	if !ok {
		return
	}

	err := h.adsService.ResumeAd(c.Request.Context(), shopID, adID)
	handler.MustSucceedWithMessage(c, err, "广告已恢复", nil)
}
