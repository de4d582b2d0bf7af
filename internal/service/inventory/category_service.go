package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/logger"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	"github.com/linxiaoyu2023/property-booking-backend/internal/service/pricing"
)

// CategoryService 房型管理服务
type CategoryService struct {
	db           *gorm.DB
	categoryRepo *repository.RoomCategoryRepository
	roomRepo     *repository.RoomRepository
	orderRepo    *repository.OrderRepository
	propertyRepo *repository.PropertyRepository
	priceService *pricing.PriceService
}

// NewCategoryService 创建房型管理服务
func NewCategoryService(
	db *gorm.DB,
	categoryRepo *repository.RoomCategoryRepository,
	roomRepo *repository.RoomRepository,
	orderRepo *repository.OrderRepository,
	propertyRepo *repository.PropertyRepository,
	priceService *pricing.PriceService,
) *CategoryService {
	return &CategoryService{
		db:           db,
		categoryRepo: categoryRepo,
		roomRepo:     roomRepo,
		orderRepo:    orderRepo,
		propertyRepo: propertyRepo,
		priceService: priceService,
	}
}

// CreateCategoryRequest 创建房型请求
// 房型类型为自由文本，仅要求同一房源下唯一
type CreateCategoryRequest struct {
	PropertyID    int64      `json:"property_id" binding:"required"`
	Type          string     `json:"type" binding:"required,max=50"`
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	BasePrice     int64      `json:"base_price" binding:"required,min=0"`
	PeakPrice     *int64     `json:"peak_price"`
	PeakStartDate *time.Time `json:"peak_start_date"`
	PeakEndDate   *time.Time `json:"peak_end_date"`
	MaxGuests     int        `json:"max_guests" binding:"required,min=1"`
	IsBreakfast   bool       `json:"is_breakfast"`
	IsRefundable  bool       `json:"is_refundable"`
	IsSmoking     bool       `json:"is_smoking"`
	Bed           *string    `json:"bed"`
	RoomCount     int        `json:"room_count" binding:"min=0"`
}

// UpdateCategoryRequest 更新房型请求
// 房间数量调整走独立的库存接口，不在此处修改
type UpdateCategoryRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	BasePrice     *int64     `json:"base_price"`
	PeakPrice     *int64     `json:"peak_price"`
	PeakStartDate *time.Time `json:"peak_start_date"`
	PeakEndDate   *time.Time `json:"peak_end_date"`
	MaxGuests     *int       `json:"max_guests"`
	IsBreakfast   *bool      `json:"is_breakfast"`
	IsRefundable  *bool      `json:"is_refundable"`
	IsSmoking     *bool      `json:"is_smoking"`
	Bed           *string    `json:"bed"`
	ClearPeak     bool       `json:"clear_peak"`
}

// CategoryInfo 房型信息
type CategoryInfo struct {
	ID            int64      `json:"id"`
	PropertyID    int64      `json:"property_id"`
	Type          string     `json:"type"`
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	BasePrice     int64      `json:"base_price"`
	PeakPrice     *int64     `json:"peak_price,omitempty"`
	PeakStartDate *time.Time `json:"peak_start_date,omitempty"`
	PeakEndDate   *time.Time `json:"peak_end_date,omitempty"`
	MaxGuests     int        `json:"max_guests"`
	IsBreakfast   bool       `json:"is_breakfast"`
	IsRefundable  bool       `json:"is_refundable"`
	IsSmoking     bool       `json:"is_smoking"`
	Bed           *string    `json:"bed,omitempty"`
	Picture       *string    `json:"picture,omitempty"`
	RoomCount     int        `json:"room_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CreateCategory 创建房型并按数量初始化房间
func (s *CategoryService) CreateCategory(ctx context.Context, tenantID int64, req *CreateCategoryRequest) (*CategoryInfo, error) {
	property, err := s.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if property.TenantID != tenantID {
		return nil, errors.ErrNotPropertyOwner
	}

	exists, err := s.categoryRepo.ExistsByType(ctx, req.PropertyID, req.Type)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrCategoryTypeExists
	}

	if err := s.priceService.ValidatePeakWindow(req.PeakPrice, req.PeakStartDate, req.PeakEndDate); err != nil {
		return nil, err
	}
	if req.RoomCount < 0 {
		return nil, errors.ErrRoomCountInvalid
	}

	category := &models.RoomCategory{
		PropertyID:    req.PropertyID,
		Type:          req.Type,
		Name:          req.Name,
		Description:   req.Description,
		BasePrice:     req.BasePrice,
		PeakPrice:     req.PeakPrice,
		PeakStartDate: req.PeakStartDate,
		PeakEndDate:   req.PeakEndDate,
		MaxGuests:     req.MaxGuests,
		IsBreakfast:   req.IsBreakfast,
		IsRefundable:  req.IsRefundable,
		IsSmoking:     req.IsSmoking,
		Bed:           req.Bed,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		rooms := make([]*models.Room, 0, req.RoomCount)
		for i := 0; i < req.RoomCount; i++ {
			rooms = append(rooms, &models.Room{
				RoomCategoryID: category.ID,
				PropertyID:     category.PropertyID,
			})
		}
		return s.roomRepo.CreateBatchTx(ctx, tx, rooms)
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return s.convertCategoryInfo(category, req.RoomCount), nil
}

// GetCategory 获取房型详情
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*CategoryInfo, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	count, err := s.roomRepo.CountActiveByCategory(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return s.convertCategoryInfo(category, int(count)), nil
}

// ListByProperty 获取房源下的房型列表
func (s *CategoryService) ListByProperty(ctx context.Context, propertyID int64) ([]*CategoryInfo, error) {
	categories, err := s.categoryRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*CategoryInfo, 0, len(categories))
	for _, category := range categories {
		count, err := s.roomRepo.CountActiveByCategory(ctx, category.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		result = append(result, s.convertCategoryInfo(category, int(count)))
	}
	return result, nil
}

// UpdateCategory 更新房型
// 旺季窗口三字段必须同增同删，更新后整体校验
func (s *CategoryService) UpdateCategory(ctx context.Context, tenantID, categoryID int64, req *UpdateCategoryRequest) (*CategoryInfo, error) {
	category, err := s.getOwnedCategory(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.BasePrice != nil {
		if *req.BasePrice < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("基础价格不能为负数")
		}
		category.BasePrice = *req.BasePrice
	}
	if req.MaxGuests != nil {
		if *req.MaxGuests < 1 {
			return nil, errors.ErrInvalidParams.WithMessage("最大入住人数至少为 1")
		}
		category.MaxGuests = *req.MaxGuests
	}
	if req.IsBreakfast != nil {
		category.IsBreakfast = *req.IsBreakfast
	}
	if req.IsRefundable != nil {
		category.IsRefundable = *req.IsRefundable
	}
	if req.IsSmoking != nil {
		category.IsSmoking = *req.IsSmoking
	}
	if req.Bed != nil {
		category.Bed = req.Bed
	}

	if req.ClearPeak {
		category.PeakPrice = nil
		category.PeakStartDate = nil
		category.PeakEndDate = nil
	} else {
		if req.PeakPrice != nil {
			category.PeakPrice = req.PeakPrice
		}
		if req.PeakStartDate != nil {
			category.PeakStartDate = req.PeakStartDate
		}
		if req.PeakEndDate != nil {
			category.PeakEndDate = req.PeakEndDate
		}
	}

	if err := s.priceService.ValidatePeakWindow(category.PeakPrice, category.PeakStartDate, category.PeakEndDate); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	count, err := s.roomRepo.CountActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertCategoryInfo(category, int(count)), nil
}

// QuoteInfo 报价信息
type QuoteInfo struct {
	RoomCategoryID int64     `json:"room_category_id"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	Nights         int       `json:"nights"`
	TotalPrice     int64     `json:"total_price"`
	IsPeak         bool      `json:"is_peak"`
}

// Quote 计算入住区间的报价
// 入住区间与旺季窗口重叠时整段按旺季价计价并标记 is_peak
func (s *CategoryService) Quote(ctx context.Context, categoryID int64, checkIn, checkOut time.Time) (*QuoteInfo, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	total, err := s.priceService.TotalForStay(category, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	nights := s.priceService.Nights(checkIn, checkOut)
	isPeak := s.priceService.StayInPeakWindow(category, checkIn, checkOut)

	return &QuoteInfo{
		RoomCategoryID: category.ID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Nights:         nights,
		TotalPrice:     total,
		IsPeak:         isPeak,
	}, nil
}

// CanDelete 判断房型当前是否可删除
func (s *CategoryService) CanDelete(ctx context.Context, categoryID int64, now time.Time) (bool, error) {
	hasFuture, err := s.orderRepo.ExistsFutureActiveByCategory(ctx, categoryID, now)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return !hasFuture, nil
}

// DeleteCategory 删除房型并级联软删除其全部房间
// 存在未退房的活跃订单时拒绝删除；
// 订单校验在事务内的房间行锁之后执行，避免与并发下单竞态
func (s *CategoryService) DeleteCategory(ctx context.Context, tenantID, categoryID int64, now time.Time) error {
	if _, err := s.getOwnedCategory(ctx, tenantID, categoryID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.roomRepo.ListActiveByCategoryForUpdate(ctx, tx, categoryID); err != nil {
			return err
		}

		hasFuture, err := s.orderRepo.ExistsFutureActiveByCategoryTx(ctx, tx, categoryID, now)
		if err != nil {
			return err
		}
		if hasFuture {
			return errors.ErrCategoryHasFutureOrders
		}

		if err := s.roomRepo.DeleteByCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		return tx.Delete(&models.RoomCategory{}, categoryID).Error
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("房型已删除", zap.Int64("category_id", categoryID), zap.Int64("tenant_id", tenantID))
	return nil
}

// getOwnedCategory 获取房型并校验归属
func (s *CategoryService) getOwnedCategory(ctx context.Context, tenantID, categoryID int64) (*models.RoomCategory, error) {
	category, err := s.categoryRepo.GetByIDWithProperty(ctx, categoryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if category.Property == nil || category.Property.TenantID != tenantID {
		return nil, errors.ErrNotPropertyOwner
	}
	return category, nil
}

func (s *CategoryService) convertCategoryInfo(category *models.RoomCategory, roomCount int) *CategoryInfo {
	return &CategoryInfo{
		ID:            category.ID,
		PropertyID:    category.PropertyID,
		Type:          category.Type,
		Name:          category.Name,
		Description:   category.Description,
		BasePrice:     category.BasePrice,
		PeakPrice:     category.PeakPrice,
		PeakStartDate: category.PeakStartDate,
		PeakEndDate:   category.PeakEndDate,
		MaxGuests:     category.MaxGuests,
		IsBreakfast:   category.IsBreakfast,
		IsRefundable:  category.IsRefundable,
		IsSmoking:     category.IsSmoking,
		Bed:           category.Bed,
		Picture:       category.Picture,
		RoomCount:     roomCount,
		CreatedAt:     category.CreatedAt,
	}
}
