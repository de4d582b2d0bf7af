package models

import (
	"time"

	"gorm.io/gorm"
)

// Property 房源模型
type Property struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID    int64          `gorm:"index;not null" json:"tenant_id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Category    string         `gorm:"type:varchar(20);not null" json:"category"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	City        string         `gorm:"type:varchar(50);not null;index" json:"city"`
	Address     string         `gorm:"type:varchar(255);not null" json:"address"`
	Longitude   *float64       `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`
	Latitude    *float64       `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Picture     *string        `gorm:"type:varchar(255)" json:"picture,omitempty"`
	Facilities  JSON           `gorm:"type:jsonb" json:"facilities,omitempty"`
	Status      int8           `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Tenant         *User          `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	RoomCategories []RoomCategory `gorm:"foreignKey:PropertyID" json:"room_categories,omitempty"`
}

// TableName 表名
func (Property) TableName() string {
	return "properties"
}

// PropertyCategory 房源类别
const (
	PropertyCategoryHotel     = "hotel"     // 酒店
	PropertyCategoryApartment = "apartment" // 公寓
	PropertyCategoryVilla     = "villa"     // 别墅
	PropertyCategoryGuestroom = "guestroom" // 民宿
)

// PropertyStatus 房源状态
const (
	PropertyStatusDisabled = 0 // 下架
	PropertyStatusActive   = 1 // 正常
)
