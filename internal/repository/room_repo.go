package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
)

// RoomRepository 房间仓储
// 房间是库存单元，数量增减通过新建/软删除实现
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// CreateBatch 批量创建房间
func (r *RoomRepository) CreateBatch(ctx context.Context, rooms []*models.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rooms).Error
}

// GetByID 根据 ID 获取房间
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CountActiveByCategory 统计房型下未删除的房间数
func (r *RoomRepository) CountActiveByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("room_category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// CountActiveByTenant 统计房东名下未删除的房间总数
func (r *RoomRepository) CountActiveByTenant(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Joins("JOIN properties ON properties.id = rooms.property_id").
		Where("properties.tenant_id = ?", tenantID).
		Where("properties.deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

// ListActiveByCategory 获取房型下未删除的房间，按创建时间升序
func (r *RoomRepository) ListActiveByCategory(ctx context.Context, categoryID int64) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("room_category_id = ?", categoryID).
		Order("created_at ASC, id ASC").
		Find(&rooms).Error
	return rooms, err
}

// ListActiveByCategoryForUpdate 锁定房型下未删除的房间，按创建时间升序
// 库存调整期间阻止并发下单修改同一批房间
func (r *RoomRepository) ListActiveByCategoryForUpdate(ctx context.Context, tx *gorm.DB, categoryID int64) ([]*models.Room, error) {
	var rooms []*models.Room
	err := tx.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("room_category_id = ?", categoryID).
		Order("created_at ASC, id ASC").
		Find(&rooms).Error
	return rooms, err
}

// SoftDeleteByIDs 批量软删除房间
func (r *RoomRepository) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Room{}).Error
}

// CreateBatchTx 在事务内批量创建房间
func (r *RoomRepository) CreateBatchTx(ctx context.Context, tx *gorm.DB, rooms []*models.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&rooms).Error
}

// DeleteByCategory 软删除房型下所有房间
func (r *RoomRepository) DeleteByCategory(ctx context.Context, tx *gorm.DB, categoryID int64) error {
	return tx.WithContext(ctx).Where("room_category_id = ?", categoryID).Delete(&models.Room{}).Error
}

// Delete 删除房间（软删除）
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// ListBlockedRoomIDsAsOf 获取房型下在指定时点不可售的房间 ID
// 不可售条件：存在待支付订单且退房日不早于 asOf；
// 已支付与各终态订单不阻断再次售卖
func (r *RoomRepository) ListBlockedRoomIDsAsOf(ctx context.Context, categoryID int64, asOf time.Time) ([]int64, error) {
	return r.listBlockedRoomIDsAsOf(ctx, r.db, categoryID, asOf)
}

// ListBlockedRoomIDsAsOfTx 事务内版本，库存调整在行锁下复用同一判定
func (r *RoomRepository) ListBlockedRoomIDsAsOfTx(ctx context.Context, tx *gorm.DB, categoryID int64, asOf time.Time) ([]int64, error) {
	return r.listBlockedRoomIDsAsOf(ctx, tx, categoryID, asOf)
}

func (r *RoomRepository) listBlockedRoomIDsAsOf(ctx context.Context, db *gorm.DB, categoryID int64, asOf time.Time) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).Model(&models.OrderRoom{}).
		Distinct("order_rooms.room_id").
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Where("order_rooms.room_category_id = ?", categoryID).
		Where("orders.status = ?", models.OrderStatusPending).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_out >= ?", asOf).
		Pluck("order_rooms.room_id", &ids).Error
	return ids, err
}

// ListOccupiedRoomIDsInRange 获取房型下与日期区间有交集的被占用房间 ID
// 区间按左闭右开比较：check_in < end 且 check_out > start
func (r *RoomRepository) ListOccupiedRoomIDsInRange(ctx context.Context, categoryID int64, start, end time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.OrderRoom{}).
		Distinct("order_rooms.room_id").
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Where("order_rooms.room_category_id = ?", categoryID).
		Where("orders.status IN ?", models.ActiveOrderStatuses).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_in < ? AND orders.check_out > ?", end, start).
		Pluck("order_rooms.room_id", &ids).Error
	return ids, err
}

// ListBusyRoomIDsFrom 获取房型下自指定时点起仍被订单占用的房间 ID
// 这些房间不可被库存缩减移除
func (r *RoomRepository) ListBusyRoomIDsFrom(ctx context.Context, tx *gorm.DB, categoryID int64, asOf time.Time) ([]int64, error) {
	var ids []int64
	err := tx.WithContext(ctx).Model(&models.OrderRoom{}).
		Distinct("order_rooms.room_id").
		Joins("JOIN orders ON orders.id = order_rooms.order_id").
		Where("order_rooms.room_category_id = ?", categoryID).
		Where("orders.status IN ?", models.ActiveOrderStatuses).
		Where("orders.deleted_at IS NULL").
		Where("orders.check_out >= ?", asOf).
		Pluck("order_rooms.room_id", &ids).Error
	return ids, err
}
