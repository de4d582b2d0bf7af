// Package order 提供订单相关的 HTTP Handler
package order

import (
	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/handler"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/response"
	orderService "github.com/linxiaoyu2023/property-booking-backend/internal/service/order"
)

// Handler 订单处理器
type Handler struct {
	orderService *orderService.OrderService
}

// NewHandler 创建订单处理器
func NewHandler(orderSvc *orderService.OrderService) *Handler {
	return &Handler{
		orderService: orderSvc,
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RoomCategoryID int64   `json:"room_category_id" binding:"required"`
	CheckIn        string  `json:"check_in" binding:"required"`
	CheckOut       string  `json:"check_out" binding:"required"`
	RoomCount      int     `json:"room_count" binding:"required,min=1"`
	GuestCount     int     `json:"guest_count" binding:"required,min=1"`
	Remark         *string `json:"remark"`
}

// CreateOrder 创建订单
// @Summary 创建订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=orderService.OrderInfo}
// @Router /orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	checkIn, err := handler.ParseDate(req.CheckIn)
	if err != nil {
		response.BadRequest(c, "无效的入住日期格式")
		return
	}
	checkOut, err := handler.ParseDate(req.CheckOut)
	if err != nil {
		response.BadRequest(c, "无效的退房日期格式")
		return
	}

	serviceReq := &orderService.CreateOrderRequest{
		RoomCategoryID: req.RoomCategoryID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		RoomCount:      req.RoomCount,
		GuestCount:     req.GuestCount,
		Remark:         req.Remark,
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, serviceReq)
	handler.MustSucceed(c, err, order)
}

// GetOrder 获取订单详情
// @Summary 获取订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=orderService.OrderInfo}
// @Router /orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, order)
}

// ListMyOrders 获取我的订单列表
// @Summary 获取我的订单列表
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态"
// @Success 200 {object} response.Response{data=[]orderService.OrderInfo}
// @Router /orders [get]
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	orders, total, err := h.orderService.ListUserOrders(c.Request.Context(), userID, p.Page, p.PageSize, c.Query("status"))
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// PayOrder 支付订单
// @Summary 支付订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=orderService.OrderInfo}
// @Router /orders/{id}/pay [post]
func (h *Handler) PayOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.PayOrder(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, order)
}

// GetCheckInCode 获取入住核验二维码
// @Summary 获取入住核验二维码
// @Description 仅已支付订单可出码，返回 PNG Data URL
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/checkin-code [get]
func (h *Handler) GetCheckInCode(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	dataURL, err := h.orderService.GetCheckInCode(c.Request.Context(), userID, orderID)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, gin.H{"qrcode": dataURL})
}

// CancelOrder 取消订单
// @Summary 取消订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.orderService.CancelOrder(c.Request.Context(), userID, orderID), nil)
}

// ListPropertyOrders 获取房源下的订单列表
// @Summary 获取房源下的订单列表
// @Tags 房东-订单
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态"
// @Success 200 {object} response.Response{data=[]orderService.OrderInfo}
// @Router /tenant/properties/{id}/orders [get]
func (h *Handler) ListPropertyOrders(c *gin.Context) {
	tenantID, propertyID, ok := handler.RequireTenantAndParseID(c, "房源")
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	orders, total, err := h.orderService.ListPropertyOrders(c.Request.Context(), tenantID, propertyID, p.Page, p.PageSize, c.Query("status"))
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// RegisterRoutes 注册用户路由
// createLimiter 仅作用于下单接口
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, createLimiter gin.HandlerFunc) {
	orders := r.Group("/orders")
	{
		if createLimiter != nil {
			orders.POST("", createLimiter, h.CreateOrder)
		} else {
			orders.POST("", h.CreateOrder)
		}
		orders.GET("", h.ListMyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/checkin-code", h.GetCheckInCode)
		orders.POST("/:id/pay", h.PayOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/refund", h.RefundOrder)
	}
}

// RegisterTenantRoutes 注册房东路由
func (h *Handler) RegisterTenantRoutes(r *gin.RouterGroup) {
	r.GET("/properties/:id/orders", h.ListPropertyOrders)
}
