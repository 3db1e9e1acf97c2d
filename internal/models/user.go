package models

import (
	"gorm.io/gorm"
)

// User represents an authenticated account. Passwords are stored as bcrypt
// hashes and never serialized.
type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	FullName     string `json:"fullName" gorm:"column:full_name"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}

// DisplayName returns the name shown on board cards and assignee lists.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
