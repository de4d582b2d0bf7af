// Package order 提供订单相关的 HTTP Handler
package order

import (
	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/handler"
)

// RefundOrder 申请退款
// @Summary 申请退款
// @Description 仅已支付且未到入住日的订单可退款，退款后房间立即释放
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/refund [post]
func (h *Handler) RefundOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.orderService.RefundOrder(c.Request.Context(), userID, orderID), nil)
}
