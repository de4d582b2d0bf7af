// Package report 提供房东经营报表服务
package report

import (
	"context"
	"time"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

// ReportService 经营报表服务
type ReportService struct {
	orderRepo *repository.OrderRepository
	roomRepo  *repository.RoomRepository
}

// NewReportService 创建经营报表服务
func NewReportService(orderRepo *repository.OrderRepository, roomRepo *repository.RoomRepository) *ReportService {
	return &ReportService{
		orderRepo: orderRepo,
		roomRepo:  roomRepo,
	}
}

// TenantReport 房东经营报表
// 收入与间夜均按已支付订单统计，跨报表区间的订单只计入区间内的部分
type TenantReport struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Revenue       int64     `json:"revenue"`
	NightsSold    int       `json:"nights_sold"`
	OrderCount    int       `json:"order_count"`
	RoomCount     int64     `json:"room_count"`
	OccupancyRate float64   `json:"occupancy_rate"`
}

// TenantReport 统计房东在指定日期区间内的收入与出租率
func (s *ReportService) TenantReport(ctx context.Context, tenantID int64, start, end time.Time) (*TenantReport, error) {
	if !end.After(start) {
		return nil, errors.ErrInvalidDateRange
	}

	orderRooms, err := s.orderRepo.ListRoomsByTenantInRange(ctx, tenantID, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	roomCount, err := s.roomRepo.CountActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	report := &TenantReport{
		StartDate: start,
		EndDate:   end,
		RoomCount: roomCount,
	}

	orderSeen := make(map[int64]struct{})
	for _, or := range orderRooms {
		if or.Order == nil {
			continue
		}
		nights := overlapNights(or.Order.CheckIn, or.Order.CheckOut, start, end)
		if nights <= 0 {
			continue
		}
		report.Revenue += int64(nights) * or.PricePerNight
		report.NightsSold += nights
		if _, ok := orderSeen[or.OrderID]; !ok {
			orderSeen[or.OrderID] = struct{}{}
			report.OrderCount++
		}
	}

	totalNights := int(end.Sub(start).Hours() / 24)
	if roomCount > 0 && totalNights > 0 {
		report.OccupancyRate = float64(report.NightsSold) / float64(roomCount*int64(totalNights))
	}
	return report, nil
}

// overlapNights 计算入住区间落在报表区间内的晚数
// 两个区间均为左闭右开
func overlapNights(checkIn, checkOut, start, end time.Time) int {
	if checkIn.Before(start) {
		checkIn = start
	}
	if checkOut.After(end) {
		checkOut = end
	}
	if !checkOut.After(checkIn) {
		return 0
	}
	return int(checkOut.Sub(checkIn).Hours() / 24)
}
