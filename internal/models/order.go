package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单模型
// 入住退房为日期语义，占用区间按左闭右开处理
type Order struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID      int64          `gorm:"index;not null" json:"user_id"`
	PropertyID  int64          `gorm:"index;not null" json:"property_id"`
	CheckIn     time.Time      `gorm:"type:date;not null;index" json:"check_in"`
	CheckOut    time.Time      `gorm:"type:date;not null;index" json:"check_out"`
	GuestCount  int            `gorm:"not null;default:1" json:"guest_count"`
	TotalPrice  int64          `gorm:"not null" json:"total_price"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExpiredAt   *time.Time     `json:"expired_at,omitempty"`
	PaidAt      *time.Time     `json:"paid_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	Remark      *string        `gorm:"type:varchar(255)" json:"remark,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	User     *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Property *Property   `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Rooms    []OrderRoom `gorm:"foreignKey:OrderID" json:"rooms,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// OrderStatus 订单状态
const (
	OrderStatusPending   = "pending"   // 待支付
	OrderStatusSuccess   = "success"   // 已支付
	OrderStatusCancelled = "cancelled" // 已取消
	OrderStatusExpired   = "expired"   // 已过期
	OrderStatusRefunded  = "refunded"  // 已退款
)

// ActiveOrderStatuses 占用房间的订单状态
// 取消和过期的订单不再占用房间
var ActiveOrderStatuses = []string{OrderStatusPending, OrderStatusSuccess}

// IsActive 订单是否仍占用房间
func (o *Order) IsActive() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusSuccess
}

// OrderRoom 订单房间关联
// 房间被软删除后关联保留，历史报表依赖于此
type OrderRoom struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64     `gorm:"index;not null" json:"order_id"`
	RoomID         int64     `gorm:"index;not null" json:"room_id"`
	RoomCategoryID int64     `gorm:"index;not null" json:"room_category_id"`
	PricePerNight  int64     `gorm:"not null" json:"price_per_night"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Room  *Room  `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (OrderRoom) TableName() string {
	return "order_rooms"
}
