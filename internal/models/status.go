package models

import (
	"gorm.io/gorm"
)

// Status is a named workflow state shared by all projects. Role flags mark
// the status used for newly created items and the completed/cancelled ends
// of the workflow; OrderIndex is the display position.
type Status struct {
	gorm.Model
	Name            string `json:"name" gorm:"size:50;unique;not null"`
	Color           string `json:"color"`
	OrderIndex      int    `json:"orderIndex" gorm:"column:order_index;not null;default:0"`
	IsDefaultForNew bool   `json:"isDefaultForNew" gorm:"column:is_default_for_new;not null;default:false"`
	IsCompleted     bool   `json:"isCompleted" gorm:"column:is_completed;not null;default:false"`
	IsCancelled     bool   `json:"isCancelled" gorm:"column:is_cancelled;not null;default:false"`
	IsActive        bool   `json:"isActive" gorm:"column:is_active;not null;default:true"`
}

// TableName specifies the table name for Status Model
func (Status) TableName() string {
	return "statuses"
}

// StatusTransition is an explicit allow/deny rule for moving an item from
// one status to another. The absence of a row is meaningful: an unlisted
// pair is allowed by default.
type StatusTransition struct {
	gorm.Model
	FromStatusID uint `json:"fromStatusId" gorm:"column:from_status_id;not null;uniqueIndex:idx_transition_pair"`
	ToStatusID   uint `json:"toStatusId" gorm:"column:to_status_id;not null;uniqueIndex:idx_transition_pair"`
	IsAllowed    bool `json:"isAllowed" gorm:"column:is_allowed;not null"`
}

// TableName specifies the table name for StatusTransition Model
func (StatusTransition) TableName() string {
	return "status_transitions"
}
