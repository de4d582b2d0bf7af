// Package property 提供房源相关的 HTTP Handler
package property

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/handler"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/response"
	propertyService "github.com/linxiaoyu2023/property-booking-backend/internal/service/property"
)

// Handler 房源处理器
type Handler struct {
	propertyService *propertyService.PropertyService
}

// NewHandler 创建房源处理器
func NewHandler(propertySvc *propertyService.PropertyService) *Handler {
	return &Handler{
		propertyService: propertySvc,
	}
}

// ListProperties 获取房源列表
// @Summary 获取房源列表
// @Tags 房源
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param city query string false "城市"
// @Param category query string false "房源类型"
// @Param keyword query string false "关键字"
// @Success 200 {object} response.Response{data=[]propertyService.PropertyInfo}
// @Router /properties [get]
func (h *Handler) ListProperties(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := make(map[string]interface{})
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}
	if category := c.Query("category"); category != "" {
		filters["category"] = category
	}
	if keyword := c.Query("keyword"); keyword != "" {
		filters["keyword"] = keyword
	}

	list, total, err := h.propertyService.List(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// SearchByCity 按城市搜索在营房源
// @Summary 按城市搜索在营房源
// @Tags 房源
// @Produce json
// @Param city query string true "城市"
// @Param check_in query string false "入住日期 YYYY-MM-DD"
// @Param check_out query string false "退房日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]propertyService.PropertyInfo}
// @Router /properties/search [get]
func (h *Handler) SearchByCity(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		response.BadRequest(c, "请指定城市")
		return
	}

	checkInStr := c.Query("check_in")
	checkOutStr := c.Query("check_out")
	if (checkInStr == "") != (checkOutStr == "") {
		response.BadRequest(c, "入住和退房日期需同时指定")
		return
	}

	// 指定入住区间时只返回有空房的房源
	if checkInStr != "" {
		checkIn, err := handler.ParseDate(checkInStr)
		if err != nil {
			response.BadRequest(c, "入住日期格式错误")
			return
		}
		checkOut, err := handler.ParseDate(checkOutStr)
		if err != nil {
			response.BadRequest(c, "退房日期格式错误")
			return
		}

		list, err := h.propertyService.SearchByStay(c.Request.Context(), city, checkIn, checkOut)
		handler.MustSucceed(c, err, list)
		return
	}

	list, err := h.propertyService.SearchByCity(c.Request.Context(), city)
	handler.MustSucceed(c, err, list)
}

// ListCities 获取有在营房源的城市列表
// @Summary 获取有在营房源的城市列表
// @Tags 房源
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /properties/cities [get]
func (h *Handler) ListCities(c *gin.Context) {
	cities, err := h.propertyService.ListCities(c.Request.Context())
	handler.MustSucceed(c, err, cities)
}

// GetProperty 获取房源详情
// @Summary 获取房源详情
// @Tags 房源
// @Produce json
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response{data=propertyService.PropertyInfo}
// @Router /properties/{id} [get]
func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}

	property, err := h.propertyService.GetProperty(c.Request.Context(), id)
	handler.MustSucceed(c, err, property)
}

// CreateProperty 创建房源
// @Summary 创建房源
// @Tags 房东-房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body propertyService.CreatePropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=propertyService.PropertyInfo}
// @Router /tenant/properties [post]
func (h *Handler) CreateProperty(c *gin.Context) {
	tenantID, ok := handler.RequireTenantID(c)
	if !ok {
		return
	}

	var req propertyService.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), tenantID, &req)
	handler.MustSucceed(c, err, property)
}

// ListMyProperties 获取我的房源列表
// @Summary 获取我的房源列表
// @Tags 房东-房源
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]propertyService.PropertyInfo}
// @Router /tenant/properties [get]
func (h *Handler) ListMyProperties(c *gin.Context) {
	tenantID, ok := handler.RequireTenantID(c)
	if !ok {
		return
	}

	list, err := h.propertyService.ListByTenant(c.Request.Context(), tenantID)
	handler.MustSucceed(c, err, list)
}

// UpdateProperty 更新房源
// @Summary 更新房源
// @Tags 房东-房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body propertyService.UpdatePropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=propertyService.PropertyInfo}
// @Router /tenant/properties/{id} [put]
func (h *Handler) UpdateProperty(c *gin.Context) {
	tenantID, propertyID, ok := handler.RequireTenantAndParseID(c, "房源")
	if !ok {
		return
	}

	var req propertyService.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), tenantID, propertyID, &req)
	handler.MustSucceed(c, err, property)
}

// DeleteProperty 删除房源
// @Summary 删除房源
// @Tags 房东-房源
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response
// @Router /tenant/properties/{id} [delete]
func (h *Handler) DeleteProperty(c *gin.Context) {
	tenantID, propertyID, ok := handler.RequireTenantAndParseID(c, "房源")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.propertyService.DeleteProperty(c.Request.Context(), tenantID, propertyID, time.Now()), nil)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	properties := r.Group("/properties")
	{
		properties.GET("", h.ListProperties)
		properties.GET("/search", h.SearchByCity)
		properties.GET("/cities", h.ListCities)
		properties.GET("/:id", h.GetProperty)
	}
}

// RegisterTenantRoutes 注册房东路由
func (h *Handler) RegisterTenantRoutes(r *gin.RouterGroup) {
	properties := r.Group("/properties")
	{
		properties.POST("", h.CreateProperty)
		properties.GET("", h.ListMyProperties)
		properties.PUT("/:id", h.UpdateProperty)
		properties.DELETE("/:id", h.DeleteProperty)
	}
}
