// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/metrics"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	orderService "github.com/linxiaoyu2023/property-booking-backend/internal/service/order"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	orderService    *orderService.OrderService
	propertyRepo    *repository.PropertyRepository
	expireBatchSize int
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	orderSvc *orderService.OrderService,
	propertyRepo *repository.PropertyRepository,
	expireBatchSize int,
) *TaskHandler {
	if expireBatchSize <= 0 {
		expireBatchSize = 100
	}
	return &TaskHandler{
		orderService:    orderSvc,
		propertyRepo:    propertyRepo,
		expireBatchSize: expireBatchSize,
	}
}

// CloseExpiredOrders 关闭超时未支付的订单
func (h *TaskHandler) CloseExpiredOrders(ctx context.Context) error {
	closed, err := h.orderService.CloseExpiredOrders(ctx, h.expireBatchSize)
	if err != nil {
		return err
	}
	if closed > 0 {
		log.Printf("[Task] Closed %d expired orders", closed)
	}
	return nil
}

// RefreshPropertyGauge 刷新在营房源数指标
func (h *TaskHandler) RefreshPropertyGauge(ctx context.Context) error {
	count, err := h.propertyRepo.CountActive(ctx)
	if err != nil {
		return err
	}
	if m := metrics.GetMetrics(); m != nil {
		m.SetActiveProperties(float64(count))
	}
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, expireCheckInterval time.Duration) {
	if expireCheckInterval <= 0 {
		expireCheckInterval = time.Minute
	}

	// 按配置间隔关闭过期订单
	scheduler.AddTask("CloseExpiredOrders", expireCheckInterval, handler.CloseExpiredOrders)

	// 每五分钟刷新房源数指标
	scheduler.AddTask("RefreshPropertyGauge", 5*time.Minute, handler.RefreshPropertyGauge)
}
