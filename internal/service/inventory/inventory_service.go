package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/logger"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/metrics"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

// InventoryService 库存调整服务
// 房间数量只增不改：扩容新建房间，缩容软删除房间
type InventoryService struct {
	db           *gorm.DB
	roomRepo     *repository.RoomRepository
	categoryRepo *repository.RoomCategoryRepository
}

// NewInventoryService 创建库存调整服务
func NewInventoryService(db *gorm.DB, roomRepo *repository.RoomRepository, categoryRepo *repository.RoomCategoryRepository) *InventoryService {
	return &InventoryService{
		db:           db,
		roomRepo:     roomRepo,
		categoryRepo: categoryRepo,
	}
}

// ShortfallError 缩减库存时可移除房间不足
type ShortfallError struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
	Removable int `json:"removable"`
	Shortfall int `json:"shortfall"`
}

// Error 实现 error 接口
func (e *ShortfallError) Error() string {
	return fmt.Sprintf("需要移除 %d 间，仅 %d 间可移除，缺口 %d 间", e.Available-e.Requested, e.Removable, e.Shortfall)
}

// AdjustResult 库存调整结果
// Previous/Current 为调整前后的可售房间数
type AdjustResult struct {
	RoomCategoryID int64   `json:"room_category_id"`
	Previous       int     `json:"previous"`
	Current        int     `json:"current"`
	Created        []int64 `json:"created,omitempty"`
	Removed        []int64 `json:"removed,omitempty"`
}

// AdjustInventory 将房型的可售房间数调整到目标值
// 调整量以当前可售房间数为基准：有未退房待支付订单的房间不计入可售。
// 整个调整在单个事务内完成并对现有房间加行锁，
// 缩容优先移除最早创建且自 asOf 起无未退房订单的房间
func (s *InventoryService) AdjustInventory(ctx context.Context, tenantID, categoryID int64, requestedCount int, asOf time.Time) (*AdjustResult, error) {
	if requestedCount < 0 {
		return nil, errors.ErrRoomCountInvalid
	}

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

	var result *AdjustResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms, err := s.roomRepo.ListActiveByCategoryForUpdate(ctx, tx, categoryID)
		if err != nil {
			return err
		}

		blockedIDs, err := s.roomRepo.ListBlockedRoomIDsAsOfTx(ctx, tx, categoryID, asOf)
		if err != nil {
			return err
		}
		blockedSet := make(map[int64]struct{}, len(blockedIDs))
		for _, id := range blockedIDs {
			blockedSet[id] = struct{}{}
		}
		available := 0
		for _, room := range rooms {
			if _, blocked := blockedSet[room.ID]; !blocked {
				available++
			}
		}

		result = &AdjustResult{
			RoomCategoryID: categoryID,
			Previous:       available,
			Current:        available,
		}

		switch {
		case requestedCount == available:
			return nil

		case requestedCount > available:
			grow := requestedCount - available
			newRooms := make([]*models.Room, 0, grow)
			for i := 0; i < grow; i++ {
				newRooms = append(newRooms, &models.Room{
					RoomCategoryID: categoryID,
					PropertyID:     category.PropertyID,
				})
			}
			if err := s.roomRepo.CreateBatchTx(ctx, tx, newRooms); err != nil {
				return err
			}
			for _, room := range newRooms {
				result.Created = append(result.Created, room.ID)
			}
			result.Current = requestedCount
			return nil

		default:
			shrink := available - requestedCount

			busyIDs, err := s.roomRepo.ListBusyRoomIDsFrom(ctx, tx, categoryID, asOf)
			if err != nil {
				return err
			}
			busySet := make(map[int64]struct{}, len(busyIDs))
			for _, id := range busyIDs {
				busySet[id] = struct{}{}
			}

			// rooms 已按创建时间升序，最早创建的优先移除
			var removable []int64
			for _, room := range rooms {
				if _, busy := busySet[room.ID]; !busy {
					removable = append(removable, room.ID)
				}
			}

			if len(removable) < shrink {
				return errors.ErrInsufficientRemovable.WithError(&ShortfallError{
					Requested: requestedCount,
					Available: available,
					Removable: len(removable),
					Shortfall: shrink - len(removable),
				})
			}

			toRemove := removable[:shrink]
			if err := s.roomRepo.SoftDeleteByIDs(ctx, tx, toRemove); err != nil {
				return err
			}
			result.Removed = toRemove
			result.Current = requestedCount
			return nil
		}
	})

	action := adjustAction(result, requestedCount)
	if err != nil {
		if m := metrics.GetMetrics(); m != nil {
			m.RecordInventoryAdjustment(action, "failed")
		}
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if m := metrics.GetMetrics(); m != nil {
		m.RecordInventoryAdjustment(action, "ok")
	}
	logger.Info("房型库存调整完成",
		zap.Int64("category_id", categoryID),
		zap.Int("previous", result.Previous),
		zap.Int("current", result.Current),
		zap.Int("created", len(result.Created)),
		zap.Int("removed", len(result.Removed)),
	)
	return result, nil
}

func adjustAction(result *AdjustResult, requestedCount int) string {
	if result == nil {
		return "shrink"
	}
	switch {
	case requestedCount > result.Previous:
		return "grow"
	case requestedCount < result.Previous:
		return "shrink"
	default:
		return "noop"
	}
}
