package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomCategory 房型模型
// 同一房源下房型类型唯一，价格单位为分
type RoomCategory struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID    int64          `gorm:"index;not null" json:"property_id"`
	Type          string         `gorm:"type:varchar(50);not null" json:"type"`
	Name          *string        `gorm:"type:varchar(100)" json:"name,omitempty"`
	Description   *string        `gorm:"type:text" json:"description,omitempty"`
	BasePrice     int64          `gorm:"not null" json:"base_price"`
	PeakPrice     *int64         `json:"peak_price,omitempty"`
	PeakStartDate *time.Time     `gorm:"type:date" json:"peak_start_date,omitempty"`
	PeakEndDate   *time.Time     `gorm:"type:date" json:"peak_end_date,omitempty"`
	MaxGuests     int            `gorm:"not null;default:2" json:"max_guests"`
	IsBreakfast   bool           `gorm:"not null;default:false" json:"is_breakfast"`
	IsRefundable  bool           `gorm:"not null;default:false" json:"is_refundable"`
	IsSmoking     bool           `gorm:"not null;default:false" json:"is_smoking"`
	Bed           *string        `gorm:"type:varchar(50)" json:"bed,omitempty"`
	Picture       *string        `gorm:"type:varchar(255)" json:"picture,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Rooms    []Room    `gorm:"foreignKey:RoomCategoryID" json:"rooms,omitempty"`
}

// TableName 表名
func (RoomCategory) TableName() string {
	return "room_categories"
}

// RoomCategoryType 常用房型类型
// 类型为自由文本，仅要求同一房源下唯一，以下为常用预设
const (
	RoomTypeStandard = "standard" // 标准间
	RoomTypeDeluxe   = "deluxe"   // 豪华间
	RoomTypeSuite    = "suite"    // 套房
)

// HasPeakWindow 是否配置了旺季价格窗口
func (rc *RoomCategory) HasPeakWindow() bool {
	return rc.PeakPrice != nil && rc.PeakStartDate != nil && rc.PeakEndDate != nil
}

// Room 房间模型
// 房间是库存单元，数量调整通过软删除/新建实现
type Room struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomCategoryID int64          `gorm:"index;not null" json:"room_category_id"`
	PropertyID     int64          `gorm:"index;not null" json:"property_id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	RoomCategory *RoomCategory `gorm:"foreignKey:RoomCategoryID" json:"room_category,omitempty"`
	Property     *Property     `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	OrderRooms   []OrderRoom   `gorm:"foreignKey:RoomID" json:"order_rooms,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}
