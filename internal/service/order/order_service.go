// Package order 提供订单服务
package order

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/logger"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/metrics"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/qrcode"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/utils"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	"github.com/linxiaoyu2023/property-booking-backend/internal/service/pricing"
	"github.com/linxiaoyu2023/property-booking-backend/pkg/payment"
)

// OrderService 订单服务
type OrderService struct {
	db            *gorm.DB
	orderRepo     *repository.OrderRepository
	categoryRepo  *repository.RoomCategoryRepository
	propertyRepo  *repository.PropertyRepository
	roomRepo      *repository.RoomRepository
	priceService  *pricing.PriceService
	paymentClient payment.Client
	paymentWindow time.Duration
	maxStayNights int
	qrGenerator   *qrcode.Generator
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	categoryRepo *repository.RoomCategoryRepository,
	propertyRepo *repository.PropertyRepository,
	roomRepo *repository.RoomRepository,
	priceService *pricing.PriceService,
	paymentClient payment.Client,
	paymentWindow time.Duration,
	maxStayNights int,
) *OrderService {
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		categoryRepo:  categoryRepo,
		propertyRepo:  propertyRepo,
		roomRepo:      roomRepo,
		priceService:  priceService,
		paymentClient: paymentClient,
		paymentWindow: paymentWindow,
		maxStayNights: maxStayNights,
		qrGenerator:   qrcode.NewGenerator(qrcode.WithSize(512)),
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RoomCategoryID int64     `json:"room_category_id" binding:"required"`
	CheckIn        time.Time `json:"check_in" binding:"required"`
	CheckOut       time.Time `json:"check_out" binding:"required"`
	RoomCount      int       `json:"room_count" binding:"required,min=1"`
	GuestCount     int       `json:"guest_count" binding:"required,min=1"`
	Remark         *string   `json:"remark"`
}

// OrderInfo 订单信息
type OrderInfo struct {
	ID         int64      `json:"id"`
	OrderNo    string     `json:"order_no"`
	PropertyID int64      `json:"property_id"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   time.Time  `json:"check_out"`
	Nights     int        `json:"nights"`
	RoomCount  int        `json:"room_count"`
	GuestCount int        `json:"guest_count"`
	TotalPrice int64      `json:"total_price"`
	Status     string     `json:"status"`
	StatusName string     `json:"status_name"`
	PayURL     string     `json:"pay_url,omitempty"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateOrder 创建订单
// 在事务内锁定房型下的房间并分配空闲房间，防止超卖
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*OrderInfo, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return nil, errors.ErrInvalidDateRange
	}
	nights := s.priceService.Nights(req.CheckIn, req.CheckOut)
	if s.maxStayNights > 0 && nights > s.maxStayNights {
		return nil, errors.ErrInvalidParams.WithMessage("入住晚数超出限制")
	}

	category, err := s.categoryRepo.GetByIDWithProperty(ctx, req.RoomCategoryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if category.Property == nil || category.Property.Status != models.PropertyStatusActive {
		return nil, errors.ErrPropertyDisabled
	}
	if req.GuestCount > category.MaxGuests*req.RoomCount {
		return nil, errors.ErrInvalidParams.WithMessage("入住人数超出房型限制")
	}

	nightlyTotal, err := s.priceService.TotalForStay(category, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	totalPrice := nightlyTotal * int64(req.RoomCount)
	pricePerNight := nightlyTotal / int64(nights)

	expiredAt := time.Now().Add(s.paymentWindow)
	order := &models.Order{
		OrderNo:    utils.GenerateOrderNo("BK"),
		UserID:     userID,
		PropertyID: category.PropertyID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		GuestCount: req.GuestCount,
		TotalPrice: totalPrice,
		Status:     models.OrderStatusPending,
		ExpiredAt:  &expiredAt,
		Remark:     req.Remark,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定房型下全部房间，避免并发分配同一房间
		rooms, err := s.roomRepo.ListActiveByCategoryForUpdate(ctx, tx, req.RoomCategoryID)
		if err != nil {
			return err
		}

		occupiedIDs, err := s.roomRepo.ListOccupiedRoomIDsInRange(ctx, req.RoomCategoryID, req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		occupiedSet := make(map[int64]struct{}, len(occupiedIDs))
		for _, id := range occupiedIDs {
			occupiedSet[id] = struct{}{}
		}

		var free []*models.Room
		for _, room := range rooms {
			if _, ok := occupiedSet[room.ID]; !ok {
				free = append(free, room)
			}
		}
		if len(free) < req.RoomCount {
			return errors.ErrRoomNotAvailable
		}

		if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
			return err
		}

		orderRooms := make([]*models.OrderRoom, 0, req.RoomCount)
		for _, room := range free[:req.RoomCount] {
			orderRooms = append(orderRooms, &models.OrderRoom{
				OrderID:        order.ID,
				RoomID:         room.ID,
				RoomCategoryID: req.RoomCategoryID,
				PricePerNight:  pricePerNight,
			})
		}
		return s.orderRepo.CreateOrderRoomsTx(ctx, tx, orderRooms)
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	payURL := ""
	if s.paymentClient != nil {
		resp, err := s.paymentClient.CreatePayment(ctx, &payment.CreatePaymentRequest{
			OutTradeNo:  order.OrderNo,
			Description: category.Property.Name,
			Amount:      order.TotalPrice,
			ExpireAt:    order.ExpiredAt,
		})
		if err != nil {
			logger.Warn("创建支付单失败", zap.String("order_no", order.OrderNo), zap.Error(err))
		} else {
			payURL = resp.PayURL
		}
	}

	if m := metrics.GetMetrics(); m != nil {
		m.RecordOrder(order.Status)
	}

	info := s.convertOrderInfo(order, req.RoomCount)
	info.PayURL = payURL
	return info, nil
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderInfo, error) {
	order, err := s.orderRepo.GetByIDWithRooms(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return nil, errors.ErrNotOrderOwner
	}
	return s.convertOrderInfo(order, len(order.Rooms)), nil
}

// ListUserOrders 获取用户订单列表
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, page, pageSize int, status string) ([]*OrderInfo, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	filters := map[string]interface{}{"user_id": userID}
	if status != "" {
		filters["status"] = status
	}

	orders, total, err := s.orderRepo.List(ctx, offset, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*OrderInfo, 0, len(orders))
	for _, order := range orders {
		result = append(result, s.convertOrderInfo(order, len(order.Rooms)))
	}
	return result, total, nil
}

// ListPropertyOrders 获取房源下的订单列表（房东视角）
func (s *OrderService) ListPropertyOrders(ctx context.Context, tenantID, propertyID int64, page, pageSize int, status string) ([]*OrderInfo, int64, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errors.ErrPropertyNotFound
		}
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	if property.TenantID != tenantID {
		return nil, 0, errors.ErrNotPropertyOwner
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	filters := map[string]interface{}{"property_id": propertyID}
	if status != "" {
		filters["status"] = status
	}

	orders, total, err := s.orderRepo.List(ctx, offset, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*OrderInfo, 0, len(orders))
	for _, order := range orders {
		result = append(result, s.convertOrderInfo(order, len(order.Rooms)))
	}
	return result, total, nil
}

// PayOrder 支付订单
// 向支付网关核实交易状态后落账
func (s *OrderService) PayOrder(ctx context.Context, userID, orderID int64) (*OrderInfo, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return nil, errors.ErrNotOrderOwner
	}

	switch order.Status {
	case models.OrderStatusPending:
	case models.OrderStatusSuccess:
		return nil, errors.ErrOrderPaid
	case models.OrderStatusCancelled:
		return nil, errors.ErrOrderCancelled
	default:
		return nil, errors.ErrOrderExpired
	}

	if order.ExpiredAt != nil && time.Now().After(*order.ExpiredAt) {
		_ = s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusExpired)
		return nil, errors.ErrOrderExpired
	}

	query, err := s.paymentClient.QueryPayment(ctx, order.OrderNo)
	if err != nil {
		return nil, errors.ErrExternalService.WithError(err)
	}
	if query.TradeState != payment.TradeStateSuccess {
		return nil, errors.ErrPaymentFailed.WithMessage("支付未完成")
	}

	now := time.Now()
	err = s.orderRepo.UpdateFields(ctx, order.ID, map[string]interface{}{
		"status":  models.OrderStatusSuccess,
		"paid_at": now,
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	order.Status = models.OrderStatusSuccess
	order.PaidAt = &now

	if m := metrics.GetMetrics(); m != nil {
		m.RecordOrder(models.OrderStatusSuccess)
		m.RecordPayment("gateway", "success")
	}
	logger.Info("订单支付成功", zap.String("order_no", order.OrderNo), zap.Int64("amount", order.TotalPrice))

	return s.convertOrderInfo(order, 0), nil
}

// GetCheckInCode 获取入住核验二维码
// 仅已支付订单可出码，内容为订单号，房东扫码核验
func (s *OrderService) GetCheckInCode(ctx context.Context, userID, orderID int64) (string, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrOrderNotFound
		}
		return "", errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return "", errors.ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusSuccess {
		return "", errors.ErrOrderNotPaid
	}

	dataURL, err := s.qrGenerator.GenerateDataURL(order.OrderNo)
	if err != nil {
		return "", errors.ErrInternalError.WithError(err)
	}
	return dataURL, nil
}

// CancelOrder 取消订单
// 仅待支付订单可取消，取消后房间立即释放
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return errors.ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusPending {
		return errors.ErrOrderCannotCancel
	}

	now := time.Now()
	err = s.orderRepo.UpdateFields(ctx, order.ID, map[string]interface{}{
		"status":       models.OrderStatusCancelled,
		"cancelled_at": now,
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	if s.paymentClient != nil {
		_ = s.paymentClient.ClosePayment(ctx, order.OrderNo)
	}
	if m := metrics.GetMetrics(); m != nil {
		m.RecordOrder(models.OrderStatusCancelled)
	}
	return nil
}

// RefundOrder 退款
// 仅已支付且尚未入住的订单可退款，退款后房间立即释放
func (s *OrderService) RefundOrder(ctx context.Context, userID, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return errors.ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusSuccess {
		return errors.ErrOrderNotPaid
	}
	if !time.Now().Before(order.CheckIn) {
		return errors.ErrRefundFailed.WithMessage("已到入住日，订单不可退款")
	}

	if s.paymentClient != nil {
		_, err := s.paymentClient.Refund(ctx, &payment.RefundRequest{
			OutTradeNo:  order.OrderNo,
			OutRefundNo: utils.GenerateOrderNo("RF"),
			Amount:      order.TotalPrice,
			Reason:      "用户申请退款",
		})
		if err != nil {
			return errors.ErrRefundFailed.WithError(err)
		}
	}

	now := time.Now()
	err = s.orderRepo.UpdateFields(ctx, order.ID, map[string]interface{}{
		"status":       models.OrderStatusRefunded,
		"cancelled_at": now,
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	if m := metrics.GetMetrics(); m != nil {
		m.RecordOrder(models.OrderStatusRefunded)
		m.RecordPayment("gateway", "refunded")
	}
	logger.Info("订单退款成功", zap.String("order_no", order.OrderNo), zap.Int64("amount", order.TotalPrice))
	return nil
}

// CloseExpiredOrders 关闭超时未支付的订单（定时任务调用）
func (s *OrderService) CloseExpiredOrders(ctx context.Context, batchSize int) (int, error) {
	orders, err := s.orderRepo.GetExpiredPending(ctx, batchSize)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	closed := 0
	for _, order := range orders {
		err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusExpired)
		if err != nil {
			logger.Error("关闭过期订单失败", zap.Int64("order_id", order.ID), zap.Error(err))
			continue
		}
		if s.paymentClient != nil {
			_ = s.paymentClient.ClosePayment(ctx, order.OrderNo)
		}
		closed++
	}

	if closed > 0 {
		logger.Info("过期订单已关闭", zap.Int("count", closed))
	}
	return closed, nil
}

func (s *OrderService) convertOrderInfo(order *models.Order, roomCount int) *OrderInfo {
	return &OrderInfo{
		ID:         order.ID,
		OrderNo:    order.OrderNo,
		PropertyID: order.PropertyID,
		CheckIn:    order.CheckIn,
		CheckOut:   order.CheckOut,
		Nights:     s.priceService.Nights(order.CheckIn, order.CheckOut),
		RoomCount:  roomCount,
		GuestCount: order.GuestCount,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		StatusName: orderStatusName(order.Status),
		ExpiredAt:  order.ExpiredAt,
		PaidAt:     order.PaidAt,
		CreatedAt:  order.CreatedAt,
	}
}

func orderStatusName(status string) string {
	switch status {
	case models.OrderStatusPending:
		return "待支付"
	case models.OrderStatusSuccess:
		return "已支付"
	case models.OrderStatusCancelled:
		return "已取消"
	case models.OrderStatusExpired:
		return "已过期"
	case models.OrderStatusRefunded:
		return "已退款"
	default:
		return "未知"
	}
}
