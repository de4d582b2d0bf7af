// Package pricing 提供房型价格解析服务
package pricing

import (
	"time"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
)

// PriceService 价格服务
// 价格单位为分，旺季窗口按日期闭区间判断
type PriceService struct{}

// NewPriceService 创建价格服务
func NewPriceService() *PriceService {
	return &PriceService{}
}

// ValidatePeakWindow 校验旺季价格窗口配置
// 三个字段要么全部设置，要么全部为空
func (s *PriceService) ValidatePeakWindow(peakPrice *int64, startDate, endDate *time.Time) error {
	if peakPrice == nil && startDate == nil && endDate == nil {
		return nil
	}
	if peakPrice == nil || startDate == nil || endDate == nil {
		return errors.ErrPeakWindowIncomplete
	}
	if startDate.After(*endDate) {
		return errors.ErrPeakWindowInvalid
	}
	if *peakPrice < 0 {
		return errors.ErrInvalidParams.WithMessage("旺季价格不能为负数")
	}
	return nil
}

// StayInPeakWindow 判断入住区间是否与旺季窗口重叠
// 重叠按闭区间判断：退房日恰为旺季首日、入住日恰为旺季末日均算旺季
func (s *PriceService) StayInPeakWindow(category *models.RoomCategory, checkIn, checkOut time.Time) bool {
	if !category.HasPeakWindow() {
		return false
	}
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	return !in.After(truncateToDay(*category.PeakEndDate)) && !out.Before(truncateToDay(*category.PeakStartDate))
}

// NightlyPrice 解析入住区间的单晚价格
// 区间与旺季窗口重叠时整段入住按旺季价计价，否则按基础价
func (s *PriceService) NightlyPrice(category *models.RoomCategory, checkIn, checkOut time.Time) int64 {
	if s.StayInPeakWindow(category, checkIn, checkOut) {
		return *category.PeakPrice
	}
	return category.BasePrice
}

// TotalForStay 计算入住区间的总价
// 晚数按左闭右开区间计算，退房日不计价
func (s *PriceService) TotalForStay(category *models.RoomCategory, checkIn, checkOut time.Time) (int64, error) {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	if !out.After(in) {
		return 0, errors.ErrInvalidDateRange
	}
	return s.NightlyPrice(category, checkIn, checkOut) * int64(s.Nights(checkIn, checkOut)), nil
}

// Nights 计算入住晚数
func (s *PriceService) Nights(checkIn, checkOut time.Time) int {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	if !out.After(in) {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
