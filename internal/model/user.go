package model

import "time"

// 用户角色
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User 买家 / 卖家 / 管理员共用一张表，按 role 区分。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Role  string `gorm:"size:20;not null;index" json:"role"`
	Phone string `gorm:"size:20" json:"phone"`
}

func (User) TableName() string { return "users" }
