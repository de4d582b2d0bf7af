// Package models 定义数据模型
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User 用户模型
// 房客和房东共用一张表，通过 Role 区分
type User struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password   *string        `gorm:"type:varchar(100)" json:"-"`
	Name       string         `gorm:"type:varchar(50);not null;default:''" json:"name"`
	Phone      *string        `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Avatar     *string        `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Role       string         `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsVerified bool           `gorm:"not null;default:false" json:"is_verified"`
	Status     int8           `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Properties []Property `gorm:"foreignKey:TenantID" json:"properties,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserRole 用户角色
const (
	RoleUser   = "user"   // 房客
	RoleTenant = "tenant" // 房东
)

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// IsTenant 是否为房东
func (u *User) IsTenant() bool {
	return u.Role == RoleTenant
}

// JSON 自定义 JSON 类型
type JSON map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Unmarshal 将 JSON 值反序列化到目标结构（便于业务层使用）
func (j JSON) Unmarshal(target interface{}) error {
	if j == nil {
		return nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
