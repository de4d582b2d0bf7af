// Package report 经营报表服务单元测试
package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appErrors "github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

func setupReportService(t *testing.T) (*ReportService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.RoomCategory{},
		&models.Room{},
		&models.Order{},
		&models.OrderRoom{},
	)
	require.NoError(t, err)

	return NewReportService(repository.NewOrderRepository(db), repository.NewRoomRepository(db)), db
}

// seedTenantRooms 创建房东及其房源、房型和房间
func seedTenantRooms(t *testing.T, db *gorm.DB, roomCount int) (*models.User, *models.RoomCategory, []*models.Room) {
	tenant := &models.User{Email: fmt.Sprintf("tenant%d@test.com", time.Now().UnixNano()), Name: "测试房东", Role: models.RoleTenant}
	require.NoError(t, db.Create(tenant).Error)

	property := &models.Property{
		TenantID: tenant.ID,
		Name:     "测试民宿",
		Category: models.PropertyCategoryGuestroom,
		City:     "杭州",
		Address:  "西湖区测试路1号",
		Status:   models.PropertyStatusActive,
	}
	require.NoError(t, db.Create(property).Error)

	category := &models.RoomCategory{
		PropertyID: property.ID,
		Type:       models.RoomTypeStandard,
		BasePrice:  20000,
		MaxGuests:  2,
	}
	require.NoError(t, db.Create(category).Error)

	rooms := make([]*models.Room, 0, roomCount)
	for i := 0; i < roomCount; i++ {
		room := &models.Room{RoomCategoryID: category.ID, PropertyID: property.ID}
		require.NoError(t, db.Create(room).Error)
		rooms = append(rooms, room)
	}
	return tenant, category, rooms
}

// seedPaidOrder 创建指定状态的订单及房间明细
func seedPaidOrder(t *testing.T, db *gorm.DB, category *models.RoomCategory, roomID int64, checkIn, checkOut time.Time, pricePerNight int64, status string) *models.Order {
	order := &models.Order{
		OrderNo:    fmt.Sprintf("BK%d", time.Now().UnixNano()),
		UserID:     1,
		PropertyID: category.PropertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: 2,
		TotalPrice: pricePerNight * int64(checkOut.Sub(checkIn).Hours()/24),
		Status:     status,
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Create(&models.OrderRoom{
		OrderID:        order.ID,
		RoomID:         roomID,
		RoomCategoryID: category.ID,
		PricePerNight:  pricePerNight,
	}).Error)
	return order
}

func TestReportService_TenantReport(t *testing.T) {
	svc, db := setupReportService(t)
	ctx := context.Background()

	tenant, category, rooms := seedTenantRooms(t, db, 2)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)

	// 区间内 4 晚
	seedPaidOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC),
		20000, models.OrderStatusSuccess)
	// 跨区间边界，仅 3 晚计入
	seedPaidOrder(t, db, category, rooms[1].ID,
		time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		20000, models.OrderStatusSuccess)
	// 待支付订单不计入收入
	seedPaidOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC),
		20000, models.OrderStatusPending)

	report, err := svc.TenantReport(ctx, tenant.ID, start, end)
	require.NoError(t, err)

	assert.Equal(t, int64(140000), report.Revenue)
	assert.Equal(t, 7, report.NightsSold)
	assert.Equal(t, 2, report.OrderCount)
	assert.Equal(t, int64(2), report.RoomCount)
	// 7 间夜 / (2 间 * 10 晚)
	assert.InDelta(t, 0.35, report.OccupancyRate, 0.0001)
}

func TestReportService_TenantReport_Empty(t *testing.T) {
	svc, db := setupReportService(t)
	ctx := context.Background()

	tenant, _, _ := seedTenantRooms(t, db, 3)

	report, err := svc.TenantReport(ctx, tenant.ID,
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Zero(t, report.Revenue)
	assert.Zero(t, report.NightsSold)
	assert.Zero(t, report.OrderCount)
	assert.Equal(t, int64(3), report.RoomCount)
	assert.Zero(t, report.OccupancyRate)
}

func TestReportService_TenantReport_OtherTenantExcluded(t *testing.T) {
	svc, db := setupReportService(t)
	ctx := context.Background()

	tenant, _, _ := seedTenantRooms(t, db, 1)
	_, otherCategory, otherRooms := seedTenantRooms(t, db, 1)

	seedPaidOrder(t, db, otherCategory, otherRooms[0].ID,
		time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		20000, models.OrderStatusSuccess)

	report, err := svc.TenantReport(ctx, tenant.ID,
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, report.Revenue)
	assert.Equal(t, int64(1), report.RoomCount)
}

func TestReportService_TenantReport_InvalidRange(t *testing.T) {
	svc, db := setupReportService(t)
	ctx := context.Background()

	tenant, _, _ := seedTenantRooms(t, db, 1)

	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.TenantReport(ctx, tenant.ID, day, day)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDateRange.Code, appErrors.GetAppError(err).Code)
}

func TestReportService_TenantReport_HistoryOfDeletedRoom(t *testing.T) {
	svc, db := setupReportService(t)
	ctx := context.Background()

	tenant, category, rooms := seedTenantRooms(t, db, 2)

	seedPaidOrder(t, db, category, rooms[0].ID,
		time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		20000, models.OrderStatusSuccess)

	// 软删除房间不影响历史收入，但从房间数中剔除
	require.NoError(t, db.Delete(&models.Room{}, rooms[0].ID).Error)

	report, err := svc.TenantReport(ctx, tenant.ID,
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(40000), report.Revenue)
	assert.Equal(t, 2, report.NightsSold)
	assert.Equal(t, int64(1), report.RoomCount)
}
