package domain

import (
	"time"
)

type Role string

const (
	RoleEmployee Role = "员工"
	RoleManager  Role = "经理"
	RoleAdmin    Role = "管理员"
)

// CanManageShifts 判断该角色是否可以创建、指派和删除班次
func (r Role) CanManageShifts() bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
