// Package property 提供房源管理与检索服务
package property

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/cache"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/logger"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/metrics"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	"github.com/linxiaoyu2023/property-booking-backend/internal/service/inventory"
)

// PropertyService 房源服务
type PropertyService struct {
	db           *gorm.DB
	propertyRepo *repository.PropertyRepository
	categoryRepo *repository.RoomCategoryRepository
	roomRepo     *repository.RoomRepository
	orderRepo    *repository.OrderRepository
	availability *inventory.AvailabilityService
	redis        *redis.Client
	cityCacheTTL time.Duration
}

// NewPropertyService 创建房源服务
func NewPropertyService(
	db *gorm.DB,
	propertyRepo *repository.PropertyRepository,
	categoryRepo *repository.RoomCategoryRepository,
	roomRepo *repository.RoomRepository,
	orderRepo *repository.OrderRepository,
	availability *inventory.AvailabilityService,
	redisClient *redis.Client,
	cityCacheTTL time.Duration,
) *PropertyService {
	return &PropertyService{
		db:           db,
		propertyRepo: propertyRepo,
		categoryRepo: categoryRepo,
		roomRepo:     roomRepo,
		orderRepo:    orderRepo,
		availability: availability,
		redis:        redisClient,
		cityCacheTTL: cityCacheTTL,
	}
}

// CreatePropertyRequest 创建房源请求
type CreatePropertyRequest struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Category    string      `json:"category" binding:"required,oneof=hotel apartment villa guestroom"`
	Description *string     `json:"description"`
	City        string      `json:"city" binding:"required,max=50"`
	Address     string      `json:"address" binding:"required,max=255"`
	Longitude   *float64    `json:"longitude"`
	Latitude    *float64    `json:"latitude"`
	Picture     *string     `json:"picture"`
	Facilities  models.JSON `json:"facilities"`
}

// UpdatePropertyRequest 更新房源请求
type UpdatePropertyRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Address     *string     `json:"address"`
	Longitude   *float64    `json:"longitude"`
	Latitude    *float64    `json:"latitude"`
	Picture     *string     `json:"picture"`
	Facilities  models.JSON `json:"facilities"`
	Status      *int8       `json:"status"`
}

// PropertyInfo 房源信息
type PropertyInfo struct {
	ID          int64       `json:"id"`
	TenantID    int64       `json:"tenant_id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Description *string     `json:"description,omitempty"`
	City        string      `json:"city"`
	Address     string      `json:"address"`
	Longitude   *float64    `json:"longitude,omitempty"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Picture     *string     `json:"picture,omitempty"`
	Facilities  models.JSON `json:"facilities,omitempty"`
	Status      int8        `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CreateProperty 创建房源
func (s *PropertyService) CreateProperty(ctx context.Context, tenantID int64, req *CreatePropertyRequest) (*PropertyInfo, error) {
	property := &models.Property{
		TenantID:    tenantID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Picture:     req.Picture,
		Facilities:  req.Facilities,
		Status:      models.PropertyStatusActive,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.invalidateCityCache(ctx, property.City)
	s.refreshActivePropertyGauge(ctx)

	return s.convertPropertyInfo(property), nil
}

// GetProperty 获取房源详情
func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*PropertyInfo, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertPropertyInfo(property), nil
}

// UpdateProperty 更新房源
func (s *PropertyService) UpdateProperty(ctx context.Context, tenantID, id int64, req *UpdatePropertyRequest) (*PropertyInfo, error) {
	property, err := s.getOwnedProperty(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		property.Name = *req.Name
	}
	if req.Description != nil {
		property.Description = req.Description
	}
	if req.Address != nil {
		property.Address = *req.Address
	}
	if req.Longitude != nil {
		property.Longitude = req.Longitude
	}
	if req.Latitude != nil {
		property.Latitude = req.Latitude
	}
	if req.Picture != nil {
		property.Picture = req.Picture
	}
	if req.Facilities != nil {
		property.Facilities = req.Facilities
	}
	if req.Status != nil {
		if *req.Status != models.PropertyStatusDisabled && *req.Status != models.PropertyStatusActive {
			return nil, errors.ErrInvalidParams.WithMessage("无效的房源状态")
		}
		property.Status = *req.Status
	}

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.invalidateCityCache(ctx, property.City)
	s.refreshActivePropertyGauge(ctx)

	return s.convertPropertyInfo(property), nil
}

// DeleteProperty 删除房源并级联软删除房型与房间
// 存在未退房的活跃订单时拒绝删除
func (s *PropertyService) DeleteProperty(ctx context.Context, tenantID, id int64, now time.Time) error {
	property, err := s.getOwnedProperty(ctx, tenantID, id)
	if err != nil {
		return err
	}

	hasOrders, err := s.orderRepo.ExistsFutureActiveByProperty(ctx, id, now)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if hasOrders {
		return errors.ErrPropertyHasOrders
	}

	categoryIDs, err := s.categoryRepo.ListIDsByProperty(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, categoryID := range categoryIDs {
			if err := s.roomRepo.DeleteByCategory(ctx, tx, categoryID); err != nil {
				return err
			}
			if err := tx.Delete(&models.RoomCategory{}, categoryID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Property{}, id).Error
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	s.invalidateCityCache(ctx, property.City)
	s.refreshActivePropertyGauge(ctx)

	logger.Info("房源已删除",
		zap.Int64("property_id", id),
		zap.Int64("tenant_id", tenantID),
		zap.Int("categories", len(categoryIDs)),
	)
	return nil
}

// ListByTenant 获取房东名下的房源
func (s *PropertyService) ListByTenant(ctx context.Context, tenantID int64) ([]*PropertyInfo, error) {
	properties, err := s.propertyRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*PropertyInfo, 0, len(properties))
	for _, property := range properties {
		result = append(result, s.convertPropertyInfo(property))
	}
	return result, nil
}

// SearchByCity 按城市检索上架房源，结果带 Redis 缓存
func (s *PropertyService) SearchByCity(ctx context.Context, city string) ([]*PropertyInfo, error) {
	key := s.cityCacheKey(city)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var result []*PropertyInfo
			if jsonErr := json.Unmarshal([]byte(cached), &result); jsonErr == nil {
				metrics.RecordCacheHitGlobal("property_city")
				return result, nil
			}
		}
		metrics.RecordCacheMissGlobal("property_city")
	}

	properties, err := s.propertyRepo.ListActiveByCity(ctx, city)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*PropertyInfo, 0, len(properties))
	for _, property := range properties {
		result = append(result, s.convertPropertyInfo(property))
	}

	if s.redis != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.redis.Set(ctx, key, data, s.cityCacheTTL).Err()
		}
	}
	return result, nil
}

// SearchByStay 按城市与入住区间检索仍有空房的房源
// 区间按左闭右开计，退房当日不占用
func (s *PropertyService) SearchByStay(ctx context.Context, city string, checkIn, checkOut time.Time) ([]*PropertyInfo, error) {
	if !checkOut.After(checkIn) {
		return nil, errors.ErrInvalidDateRange
	}

	properties, err := s.SearchByCity(ctx, city)
	if err != nil {
		return nil, err
	}

	result := make([]*PropertyInfo, 0, len(properties))
	for _, property := range properties {
		categories, err := s.categoryRepo.ListByProperty(ctx, property.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		for _, category := range categories {
			info, err := s.availability.CountAvailableForRange(ctx, category.ID, checkIn, checkOut)
			if err != nil {
				return nil, err
			}
			if info.Available > 0 {
				result = append(result, property)
				break
			}
		}
	}
	return result, nil
}

// ListCities 获取有上架房源的城市列表，结果带 Redis 缓存
func (s *PropertyService) ListCities(ctx context.Context) ([]string, error) {
	key := cache.KeyPrefixProperty + "cities"

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var cities []string
			if jsonErr := json.Unmarshal([]byte(cached), &cities); jsonErr == nil {
				metrics.RecordCacheHitGlobal("property_cities")
				return cities, nil
			}
		}
		metrics.RecordCacheMissGlobal("property_cities")
	}

	cities, err := s.propertyRepo.ListCities(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(cities); err == nil {
			_ = s.redis.Set(ctx, key, data, s.cityCacheTTL).Err()
		}
	}
	return cities, nil
}

// List 分页获取房源列表
func (s *PropertyService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*PropertyInfo, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	properties, total, err := s.propertyRepo.List(ctx, offset, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*PropertyInfo, 0, len(properties))
	for _, property := range properties {
		result = append(result, s.convertPropertyInfo(property))
	}
	return result, total, nil
}

// getOwnedProperty 获取房源并校验归属
func (s *PropertyService) getOwnedProperty(ctx context.Context, tenantID, id int64) (*models.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if property.TenantID != tenantID {
		return nil, errors.ErrNotPropertyOwner
	}
	return property, nil
}

func (s *PropertyService) cityCacheKey(city string) string {
	return cache.KeyPrefixPropertyCity + city
}

func (s *PropertyService) invalidateCityCache(ctx context.Context, city string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.cityCacheKey(city), cache.KeyPrefixProperty+"cities").Err(); err != nil {
		logger.Warn("城市缓存失效失败", zap.String("city", city), zap.Error(err))
	}
}

func (s *PropertyService) refreshActivePropertyGauge(ctx context.Context) {
	m := metrics.GetMetrics()
	if m == nil {
		return
	}
	count, err := s.propertyRepo.CountActive(ctx)
	if err != nil {
		return
	}
	m.SetActiveProperties(float64(count))
}

func (s *PropertyService) convertPropertyInfo(property *models.Property) *PropertyInfo {
	return &PropertyInfo{
		ID:          property.ID,
		TenantID:    property.TenantID,
		Name:        property.Name,
		Category:    property.Category,
		Description: property.Description,
		City:        property.City,
		Address:     property.Address,
		Longitude:   property.Longitude,
		Latitude:    property.Latitude,
		Picture:     property.Picture,
		Facilities:  property.Facilities,
		Status:      property.Status,
		CreatedAt:   property.CreatedAt,
	}
}
