package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
)

// RoomCategoryRepository 房型仓储
type RoomCategoryRepository struct {
	db *gorm.DB
}

// NewRoomCategoryRepository 创建房型仓储
func NewRoomCategoryRepository(db *gorm.DB) *RoomCategoryRepository {
	return &RoomCategoryRepository{db: db}
}

// Create 创建房型
func (r *RoomCategoryRepository) Create(ctx context.Context, category *models.RoomCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID 根据 ID 获取房型
func (r *RoomCategoryRepository) GetByID(ctx context.Context, id int64) (*models.RoomCategory, error) {
	var category models.RoomCategory
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByIDWithProperty 根据 ID 获取房型（包含房源信息）
func (r *RoomCategoryRepository) GetByIDWithProperty(ctx context.Context, id int64) (*models.RoomCategory, error) {
	var category models.RoomCategory
	err := r.db.WithContext(ctx).
		Preload("Property").
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByType 检查房源下是否已存在该类型的房型
func (r *RoomCategoryRepository) ExistsByType(ctx context.Context, propertyID int64, roomType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomCategory{}).
		Where("property_id = ?", propertyID).
		Where("type = ?", roomType).
		Count(&count).Error
	return count > 0, err
}

// Update 更新房型
func (r *RoomCategoryRepository) Update(ctx context.Context, category *models.RoomCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// UpdateFields 更新指定字段
func (r *RoomCategoryRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.RoomCategory{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除房型（软删除）
func (r *RoomCategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.RoomCategory{}, id).Error
}

// ListByProperty 获取房源下的房型列表
func (r *RoomCategoryRepository) ListByProperty(ctx context.Context, propertyID int64) ([]*models.RoomCategory, error) {
	var categories []*models.RoomCategory
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("id ASC").
		Find(&categories).Error
	return categories, err
}

// ListIDsByProperty 获取房源下所有房型 ID
func (r *RoomCategoryRepository) ListIDsByProperty(ctx context.Context, propertyID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.RoomCategory{}).
		Where("property_id = ?", propertyID).
		Pluck("id", &ids).Error
	return ids, err
}
