package models

import (
	"gorm.io/gorm"
)

// Project owns epics, work items and at most one board. The short key
// prefixes every generated entity key (e.g. "ABC" -> "ABC-42").
type Project struct {
	gorm.Model
	Key         string `json:"key" gorm:"size:10;unique;not null"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	OwnerID     uint   `json:"ownerId" gorm:"column:owner_id;not null;index"`
}

// TableName specifies the table name for Project Model
func (Project) TableName() string {
	return "projects"
}
