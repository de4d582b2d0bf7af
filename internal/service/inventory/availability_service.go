// Package inventory 提供房型库存与可用性服务
package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

// AvailabilityService 可用性服务
type AvailabilityService struct {
	roomRepo     *repository.RoomRepository
	categoryRepo *repository.RoomCategoryRepository
}

// NewAvailabilityService 创建可用性服务
func NewAvailabilityService(roomRepo *repository.RoomRepository, categoryRepo *repository.RoomCategoryRepository) *AvailabilityService {
	return &AvailabilityService{
		roomRepo:     roomRepo,
		categoryRepo: categoryRepo,
	}
}

// AvailabilityInfo 可用性信息
type AvailabilityInfo struct {
	RoomCategoryID int64 `json:"room_category_id"`
	Total          int   `json:"total"`
	Occupied       int   `json:"occupied"`
	Available      int   `json:"available"`
}

// CountAvailableAsOf 统计指定时点的可售房间数
// 存在退房日不早于 asOf 的待支付订单的房间不可售，
// 已支付与各终态订单不阻断再次售卖
func (s *AvailabilityService) CountAvailableAsOf(ctx context.Context, categoryID int64, asOf time.Time) (*AvailabilityInfo, error) {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	total, err := s.roomRepo.CountActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	occupiedIDs, err := s.roomRepo.ListBlockedRoomIDsAsOf(ctx, categoryID, asOf)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	occupied, err := s.countActiveOccupied(ctx, categoryID, occupiedIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &AvailabilityInfo{
		RoomCategoryID: categoryID,
		Total:          int(total),
		Occupied:       occupied,
		Available:      int(total) - occupied,
	}, nil
}

// CountAvailableForRange 统计日期区间内全程可用的房间数
// 与区间有任何交集的占用都会扣减可用数
func (s *AvailabilityService) CountAvailableForRange(ctx context.Context, categoryID int64, start, end time.Time) (*AvailabilityInfo, error) {
	if !end.After(start) {
		return nil, errors.ErrInvalidDateRange
	}
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	total, err := s.roomRepo.CountActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	occupiedIDs, err := s.roomRepo.ListOccupiedRoomIDsInRange(ctx, categoryID, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	occupied, err := s.countActiveOccupied(ctx, categoryID, occupiedIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &AvailabilityInfo{
		RoomCategoryID: categoryID,
		Total:          int(total),
		Occupied:       occupied,
		Available:      int(total) - occupied,
	}, nil
}

// FreeRoomsInRange 获取日期区间内全程空闲的房间，按创建时间升序
func (s *AvailabilityService) FreeRoomsInRange(ctx context.Context, categoryID int64, start, end time.Time) ([]*models.Room, error) {
	if !end.After(start) {
		return nil, errors.ErrInvalidDateRange
	}

	rooms, err := s.roomRepo.ListActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	occupiedIDs, err := s.roomRepo.ListOccupiedRoomIDsInRange(ctx, categoryID, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
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
	return free, nil
}

// countActiveOccupied 统计占用房间中仍在库存内的数量
// 已软删除房间的历史订单不应扣减当前库存
func (s *AvailabilityService) countActiveOccupied(ctx context.Context, categoryID int64, occupiedIDs []int64) (int, error) {
	if len(occupiedIDs) == 0 {
		return 0, nil
	}
	rooms, err := s.roomRepo.ListActiveByCategory(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	activeSet := make(map[int64]struct{}, len(rooms))
	for _, room := range rooms {
		activeSet[room.ID] = struct{}{}
	}
	count := 0
	for _, id := range occupiedIDs {
		if _, ok := activeSet[id]; ok {
			count++
		}
	}
	return count, nil
}
