// Package inventory 可用性服务单元测试
package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	"gorm.io/gorm"
)

func setupAvailabilityService(t *testing.T) (*AvailabilityService, *gorm.DB) {
	db := setupTestDB(t)
	roomRepo := repository.NewRoomRepository(db)
	categoryRepo := repository.NewRoomCategoryRepository(db)
	return NewAvailabilityService(roomRepo, categoryRepo), db
}

func TestAvailabilityService_CountAvailableAsOf(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 3)

	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	createTestOrder(t, db, category, rooms[0].ID, checkIn, checkOut, models.OrderStatusPending)
	// 已取消订单不占用
	createTestOrder(t, db, category, rooms[1].ID, checkIn, checkOut, models.OrderStatusCancelled)

	// 入住期间：3 间中 1 间被待支付订单占用
	info, err := svc.CountAvailableAsOf(ctx, category.ID, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, info.Total)
	assert.Equal(t, 1, info.Occupied)
	assert.Equal(t, 2, info.Available)

	// 退房日当天仍视为占用，次日释放
	info, err = svc.CountAvailableAsOf(ctx, category.ID, checkOut)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Occupied)

	info, err = svc.CountAvailableAsOf(ctx, category.ID, checkOut.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, info.Occupied)
	assert.Equal(t, 3, info.Available)
}

func TestAvailabilityService_CountAvailableAsOf_FuturePendingBlocks(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 3)
	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// 尚未入住的待支付订单同样占用房间
	createTestOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC),
		models.OrderStatusPending)

	info, err := svc.CountAvailableAsOf(ctx, category.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Total)
	assert.Equal(t, 1, info.Occupied)
	assert.Equal(t, 2, info.Available)
}

func TestAvailabilityService_CountAvailableAsOf_PaidOrderDoesNotBlock(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 2)
	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// 已支付订单不阻断时点可售判定
	createTestOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC),
		models.OrderStatusSuccess)

	info, err := svc.CountAvailableAsOf(ctx, category.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Occupied)
	assert.Equal(t, 2, info.Available)
}

func TestAvailabilityService_CountAvailableAsOf_CategoryNotFound(t *testing.T) {
	svc, _ := setupAvailabilityService(t)
	ctx := context.Background()

	_, err := svc.CountAvailableAsOf(ctx, 99999, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrCategoryNotFound)
}

func TestAvailabilityService_CountAvailableAsOf_IgnoresDeletedRooms(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 2)

	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	createTestOrder(t, db, category, rooms[0].ID, checkIn, checkOut, models.OrderStatusPending)

	// 软删除被占用的房间后，它既不计入总数也不计入占用
	require.NoError(t, db.Delete(&models.Room{}, rooms[0].ID).Error)

	info, err := svc.CountAvailableAsOf(ctx, category.ID, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Total)
	assert.Equal(t, 0, info.Occupied)
	assert.Equal(t, 1, info.Available)
}

func TestAvailabilityService_CountActiveOccupied_PropagatesError(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 1)

	// 房间表查询失败时必须返回错误而非近似值
	require.NoError(t, db.Migrator().DropTable(&models.Room{}))

	_, err := svc.countActiveOccupied(ctx, category.ID, []int64{rooms[0].ID})
	assert.Error(t, err)
}

func TestAvailabilityService_CountAvailableForRange(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 2)

	createTestOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		models.OrderStatusPending)

	// 区间与订单有交集
	info, err := svc.CountAvailableForRange(ctx, category.ID,
		time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Available)

	// 首尾相接不冲突：7月3日退房后即可入住
	info, err = svc.CountAvailableForRange(ctx, category.ID,
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, info.Available)
}

func TestAvailabilityService_CountAvailableForRange_InvalidRange(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, _ := createTestCategory(t, db, 1)

	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.CountAvailableForRange(ctx, category.ID, day, day)
	assert.ErrorIs(t, err, appErrors.ErrInvalidDateRange)
}

func TestAvailabilityService_FreeRoomsInRange(t *testing.T) {
	svc, db := setupAvailabilityService(t)
	ctx := context.Background()

	_, category, rooms := createTestCategory(t, db, 3)

	createTestOrder(t, db, category, rooms[1].ID,
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		models.OrderStatusSuccess)

	free, err := svc.FreeRoomsInRange(ctx, category.ID,
		time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, free, 2)
	// 按创建时间升序
	assert.Equal(t, rooms[0].ID, free[0].ID)
	assert.Equal(t, rooms[2].ID, free[1].ID)
}
