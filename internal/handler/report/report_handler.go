// Package report 提供房东经营报表的 HTTP Handler
package report

import (
	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/handler"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/response"
	reportService "github.com/linxiaoyu2023/property-booking-backend/internal/service/report"
)

// Handler 经营报表处理器
type Handler struct {
	reportService *reportService.ReportService
}

// NewHandler 创建经营报表处理器
func NewHandler(reportSvc *reportService.ReportService) *Handler {
	return &Handler{
		reportService: reportSvc,
	}
}

// GetTenantReport 获取经营报表
// @Summary 获取经营报表
// @Description 统计区间内已支付订单的收入、间夜数和出租率，区间左闭右开
// @Tags 房东-报表
// @Produce json
// @Security Bearer
// @Param start_date query string true "开始日期 (YYYY-MM-DD)"
// @Param end_date query string true "结束日期 (YYYY-MM-DD)，不含当日"
// @Success 200 {object} response.Response{data=reportService.TenantReport}
// @Router /tenant/report [get]
func (h *Handler) GetTenantReport(c *gin.Context) {
	tenantID, ok := handler.RequireTenantID(c)
	if !ok {
		return
	}

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		response.BadRequest(c, "请指定开始和结束日期")
		return
	}
	start, err := handler.ParseDate(startStr)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return
	}
	end, err := handler.ParseDate(endStr)
	if err != nil {
		response.BadRequest(c, "无效的结束日期格式")
		return
	}

	report, err := h.reportService.TenantReport(c.Request.Context(), tenantID, start, end)
	handler.MustSucceed(c, err, report)
}

// RegisterTenantRoutes 注册房东路由
func (h *Handler) RegisterTenantRoutes(r *gin.RouterGroup) {
	r.GET("/report", h.GetTenantReport)
}
