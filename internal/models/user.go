package models

import (
	"strconv"

	"gorm.io/gorm"
)

// Role values. A user has exactly one role.
const (
	RoleGuest = "guest"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username       string `gorm:"uniqueIndex" json:"username"`
	HashedPassword string `json:"-"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Subject is the value carried in the token "sub" claim for this user.
func (u *User) Subject() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
