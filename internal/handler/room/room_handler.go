// Package room 提供房型与库存相关的 HTTP Handler
package room

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/handler"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/response"
	inventoryService "github.com/linxiaoyu2023/property-booking-backend/internal/service/inventory"
)

// Handler 房型与库存处理器
type Handler struct {
	categoryService     *inventoryService.CategoryService
	inventoryService    *inventoryService.InventoryService
	availabilityService *inventoryService.AvailabilityService
}

// NewHandler 创建房型与库存处理器
func NewHandler(
	categorySvc *inventoryService.CategoryService,
	inventorySvc *inventoryService.InventoryService,
	availabilitySvc *inventoryService.AvailabilityService,
) *Handler {
	return &Handler{
		categoryService:     categorySvc,
		inventoryService:    inventorySvc,
		availabilityService: availabilitySvc,
	}
}

// ListCategories 获取房源下的房型列表
// @Summary 获取房源下的房型列表
// @Tags 房型
// @Produce json
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response{data=[]inventoryService.CategoryInfo}
// @Router /properties/{id}/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}

	list, err := h.categoryService.ListByProperty(c.Request.Context(), propertyID)
	handler.MustSucceed(c, err, list)
}

// GetCategory 获取房型详情
// @Summary 获取房型详情
// @Tags 房型
// @Produce json
// @Param id path int true "房型ID"
// @Success 200 {object} response.Response{data=inventoryService.CategoryInfo}
// @Router /categories/{id} [get]
func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	category, err := h.categoryService.GetCategory(c.Request.Context(), id)
	handler.MustSucceed(c, err, category)
}

// GetAvailability 查询房型可用情况
// @Summary 查询房型可用情况
// @Description 指定 check_in 和 check_out 查询区间可用；否则查询 as_of 时点可用
// @Tags 房型
// @Produce json
// @Param id path int true "房型ID"
// @Param check_in query string false "入住日期 (YYYY-MM-DD)"
// @Param check_out query string false "退房日期 (YYYY-MM-DD)"
// @Param as_of query string false "查询时点日期 (YYYY-MM-DD)，默认今天"
// @Success 200 {object} response.Response{data=inventoryService.AvailabilityInfo}
// @Router /categories/{id}/availability [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	categoryID, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	checkInStr := c.Query("check_in")
	checkOutStr := c.Query("check_out")
	if checkInStr != "" || checkOutStr != "" {
		if checkInStr == "" || checkOutStr == "" {
			response.BadRequest(c, "请同时指定入住和退房日期")
			return
		}
		checkIn, err := handler.ParseDate(checkInStr)
		if err != nil {
			response.BadRequest(c, "无效的入住日期格式")
			return
		}
		checkOut, err := handler.ParseDate(checkOutStr)
		if err != nil {
			response.BadRequest(c, "无效的退房日期格式")
			return
		}

		info, err := h.availabilityService.CountAvailableForRange(c.Request.Context(), categoryID, checkIn, checkOut)
		handler.MustSucceed(c, err, info)
		return
	}

	asOf := time.Now()
	if asOfStr := c.Query("as_of"); asOfStr != "" {
		t, err := handler.ParseDate(asOfStr)
		if err != nil {
			response.BadRequest(c, "无效的查询日期格式")
			return
		}
		asOf = t
	}

	info, err := h.availabilityService.CountAvailableAsOf(c.Request.Context(), categoryID, asOf)
	handler.MustSucceed(c, err, info)
}

// GetQuote 查询房型入住区间报价
// @Summary 查询房型入住区间报价
// @Tags 房型
// @Produce json
// @Param id path int true "房型ID"
// @Param check_in query string true "入住日期 (YYYY-MM-DD)"
// @Param check_out query string true "退房日期 (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=inventoryService.QuoteInfo}
// @Router /categories/{id}/quote [get]
func (h *Handler) GetQuote(c *gin.Context) {
	categoryID, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	checkIn, err := handler.ParseDate(c.Query("check_in"))
	if err != nil {
		response.BadRequest(c, "无效的入住日期格式")
		return
	}
	checkOut, err := handler.ParseDate(c.Query("check_out"))
	if err != nil {
		response.BadRequest(c, "无效的退房日期格式")
		return
	}

	quote, err := h.categoryService.Quote(c.Request.Context(), categoryID, checkIn, checkOut)
	handler.MustSucceed(c, err, quote)
}

// CreateCategory 创建房型
// @Summary 创建房型
// @Tags 房东-房型
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body inventoryService.CreateCategoryRequest true "请求参数"
// @Success 200 {object} response.Response{data=inventoryService.CategoryInfo}
// @Router /tenant/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	tenantID, ok := handler.RequireTenantID(c)
	if !ok {
		return
	}

	var req inventoryService.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), tenantID, &req)
	handler.MustSucceed(c, err, category)
}

// UpdateCategory 更新房型
// @Summary 更新房型
// @Tags 房东-房型
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房型ID"
// @Param request body inventoryService.UpdateCategoryRequest true "请求参数"
// @Success 200 {object} response.Response{data=inventoryService.CategoryInfo}
// @Router /tenant/categories/{id} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	tenantID, categoryID, ok := handler.RequireTenantAndParseID(c, "房型")
	if !ok {
		return
	}

	var req inventoryService.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), tenantID, categoryID, &req)
	handler.MustSucceed(c, err, category)
}

// DeleteCategory 删除房型
// @Summary 删除房型
// @Description 存在未完结订单的房型不可删除
// @Tags 房东-房型
// @Produce json
// @Security Bearer
// @Param id path int true "房型ID"
// @Success 200 {object} response.Response
// @Router /tenant/categories/{id} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	tenantID, categoryID, ok := handler.RequireTenantAndParseID(c, "房型")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.categoryService.DeleteCategory(c.Request.Context(), tenantID, categoryID, time.Now()), nil)
}

// AdjustInventoryRequest 调整房间数量请求
type AdjustInventoryRequest struct {
	RoomCount int `json:"room_count" binding:"min=0"`
}

// AdjustInventory 调整房型房间数量
// @Summary 调整房型房间数量
// @Description 以当前可售房间数为基准：增加时补建房间；减少时按创建时间从旧到新下架无未完结订单的房间
// @Tags 房东-房型
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房型ID"
// @Param request body AdjustInventoryRequest true "请求参数"
// @Success 200 {object} response.Response{data=inventoryService.AdjustResult}
// @Router /tenant/categories/{id}/inventory [put]
func (h *Handler) AdjustInventory(c *gin.Context) {
	tenantID, categoryID, ok := handler.RequireTenantAndParseID(c, "房型")
	if !ok {
		return
	}

	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.inventoryService.AdjustInventory(c.Request.Context(), tenantID, categoryID, req.RoomCount, time.Now())
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, result)
}

// CanDeleteCategory 查询房型是否可删除
// @Summary 查询房型是否可删除
// @Tags 房东-房型
// @Produce json
// @Security Bearer
// @Param id path int true "房型ID"
// @Param as_of query string false "判定时点日期 (YYYY-MM-DD)，默认今天"
// @Success 200 {object} response.Response
// @Router /tenant/categories/{id}/can-delete [get]
func (h *Handler) CanDeleteCategory(c *gin.Context) {
	_, categoryID, ok := handler.RequireTenantAndParseID(c, "房型")
	if !ok {
		return
	}

	asOf := time.Now()
	if asOfStr := c.Query("as_of"); asOfStr != "" {
		t, err := handler.ParseDate(asOfStr)
		if err != nil {
			response.BadRequest(c, "无效的判定日期格式")
			return
		}
		asOf = t
	}

	canDelete, err := h.categoryService.CanDelete(c.Request.Context(), categoryID, asOf)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, gin.H{
		"can_delete": canDelete,
		"as_of":      asOf.Format(handler.DateFormat),
	})
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties/:id/categories", h.ListCategories)

	categories := r.Group("/categories")
	{
		categories.GET("/:id", h.GetCategory)
		categories.GET("/:id/availability", h.GetAvailability)
		categories.GET("/:id/quote", h.GetQuote)
	}
}

// RegisterTenantRoutes 注册房东路由
func (h *Handler) RegisterTenantRoutes(r *gin.RouterGroup) {
	categories := r.Group("/categories")
	{
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
		categories.PUT("/:id/inventory", h.AdjustInventory)
		categories.GET("/:id/can-delete", h.CanDeleteCategory)
	}
}
