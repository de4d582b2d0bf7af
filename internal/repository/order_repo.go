package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateTx 在事务内创建订单
func (r *OrderRepository) CreateTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// CreateOrderRoomsTx 在事务内创建订单房间关联
func (r *OrderRepository) CreateOrderRoomsTx(ctx context.Context, tx *gorm.DB, orderRooms []*models.OrderRoom) error {
	if len(orderRooms) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&orderRooms).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDWithRooms 根据 ID 获取订单（包含房间明细）
func (r *OrderRepository) GetByIDWithRooms(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Rooms").
		Preload("Property").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateStatus 更新订单状态
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateFields 更新指定字段
func (r *OrderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

// List 获取订单列表
func (r *OrderRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if startTime, ok := filters["start_time"].(time.Time); ok {
		query = query.Where("created_at >= ?", startTime)
	}
	if endTime, ok := filters["end_time"].(time.Time); ok {
		query = query.Where("created_at <= ?", endTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Rooms").Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetExpiredPending 获取已超时未支付的订单
func (r *OrderRepository) GetExpiredPending(ctx context.Context, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OrderStatusPending).
		Where("expired_at IS NOT NULL AND expired_at < ?", time.Now()).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ExistsFutureActiveByCategory 检查房型下是否存在尚未退房的活跃订单
// 退房日与 asOf 当天相同仍视为占用，用于房型删除前的校验
func (r *OrderRepository) ExistsFutureActiveByCategory(ctx context.Context, categoryID int64, asOf time.Time) (bool, error) {
	return r.existsFutureActiveByCategory(ctx, r.db, categoryID, asOf)
}

// ExistsFutureActiveByCategoryTx 事务内版本，配合房间行锁使用
func (r *OrderRepository) ExistsFutureActiveByCategoryTx(ctx context.Context, tx *gorm.DB, categoryID int64, asOf time.Time) (bool, error) {
	return r.existsFutureActiveByCategory(ctx, tx, categoryID, asOf)
}

func (r *OrderRepository) existsFutureActiveByCategory(ctx context.Context, db *gorm.DB, categoryID int64, asOf time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.OrderRoom{}).
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Where("order_rooms.room_category_id = ?", categoryID).
		Where("orders.status IN ?", models.ActiveOrderStatuses).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_out >= ?", asOf).
		Count(&count).Error
	return count > 0, err
}

// ExistsFutureActiveByProperty 检查房源下是否存在尚未退房的活跃订单
func (r *OrderRepository) ExistsFutureActiveByProperty(ctx context.Context, propertyID int64, asOf time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("property_id = ?", propertyID).
		Where("status IN ?", models.ActiveOrderStatuses).
		Where("check_out >= ?", asOf).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByRoomInRange 统计房间在日期区间内的活跃订单数
// 区间按左闭右开比较
func (r *OrderRepository) CountActiveByRoomInRange(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderRoom{}).
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Where("order_rooms.room_id = ?", roomID).
		Where("orders.status IN ?", models.ActiveOrderStatuses).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_in < ? AND orders.check_out > ?", checkOut, checkIn).
		Count(&count).Error
	return count, err
}

// ListRoomsByTenantInRange 获取房东名下订单房间明细，用于经营报表
func (r *OrderRepository) ListRoomsByTenantInRange(ctx context.Context, tenantID int64, start, end time.Time) ([]*models.OrderRoom, error) {
	var orderRooms []*models.OrderRoom
	err := r.db.WithContext(ctx).Model(&models.OrderRoom{}).
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Joins("JOIN properties ON properties.id = orders.property_id").
		Where("properties.tenant_id = ?", tenantID).
		Where("orders.status = ?", models.OrderStatusSuccess).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_in < ? AND orders.check_out > ?", end, start).
		Preload("Order").
		Find(&orderRooms).Error
	return orderRooms, err
}
