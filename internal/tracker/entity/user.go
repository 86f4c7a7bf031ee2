package entity

import (
	"time"
)

// 角色
const (
	RoleAdmin  = "ADMIN"
	RoleVendor = "VENDOR"
	RoleDVP    = "DVP"
	RoleTNV    = "TNV"
)

// Roles 全部角色
var Roles = []string{RoleAdmin, RoleVendor, RoleDVP, RoleTNV}

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User 用户实体
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	Email        string     `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:16;not null;index"`
	Company      string     `json:"company,omitempty" gorm:"size:128"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// IsValidRole 校验角色
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRef 嵌入到其他实体中的用户摘要
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
