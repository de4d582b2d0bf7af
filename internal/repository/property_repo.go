package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
)

// PropertyRepository 房源仓储
type PropertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository 创建房源仓储
func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create 创建房源
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// GetByID 根据 ID 获取房源
func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByIDWithCategories 根据 ID 获取房源（包含房型）
func (r *PropertyRepository) GetByIDWithCategories(ctx context.Context, id int64) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Preload("RoomCategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Update 更新房源
func (r *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Save(property).Error
}

// UpdateFields 更新指定字段
func (r *PropertyRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus 更新房源状态
func (r *PropertyRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 删除房源（软删除）
func (r *PropertyRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Property{}, id).Error
}

// List 获取房源列表
func (r *PropertyRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Property, int64, error) {
	var properties []*models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{})

	if city, ok := filters["city"].(string); ok && city != "" {
		query = query.Where("city = ?", city)
	}
	if category, ok := filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}
	if tenantID, ok := filters["tenant_id"].(int64); ok && tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if status, ok := filters["status"].(int8); ok {
		query = query.Where("status = ?", status)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

// ListByTenant 获取房东名下的房源
func (r *PropertyRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*models.Property, error) {
	var properties []*models.Property
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Find(&properties).Error
	return properties, err
}

// ListActiveByCity 获取城市下的上架房源
func (r *PropertyRepository) ListActiveByCity(ctx context.Context, city string) ([]*models.Property, error) {
	var properties []*models.Property
	err := r.db.WithContext(ctx).
		Where("city = ?", city).
		Where("status = ?", models.PropertyStatusActive).
		Order("id DESC").
		Find(&properties).Error
	return properties, err
}

// ListCities 获取有上架房源的城市列表
func (r *PropertyRepository) ListCities(ctx context.Context) ([]string, error) {
	var cities []string
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusActive).
		Distinct("city").
		Order("city").
		Pluck("city", &cities).Error
	return cities, err
}

// CountActive 统计上架房源数量
func (r *PropertyRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusActive).
		Count(&count).Error
	return count, err
}
