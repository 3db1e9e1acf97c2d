package models

import (
	"gorm.io/gorm"
)

// Epic groups work items under a project-scoped generated key
// ("ABC-EPIC-3"). Epics share the status workflow with work items but
// never nest.
type Epic struct {
	gorm.Model
	ProjectID   uint     `json:"projectId" gorm:"column:project_id;not null;index;uniqueIndex:idx_epic_key"`
	Key         string   `json:"key" gorm:"not null;uniqueIndex:idx_epic_key"`
	Name        string   `json:"name" gorm:"not null"`
	Description string   `json:"description"`
	StatusID    uint     `json:"statusId" gorm:"column:status_id;not null;index"`
	AssigneeID  *uint    `json:"assigneeId" gorm:"column:assignee_id"`
	ReporterID  uint     `json:"reporterId" gorm:"column:reporter_id"`
	Priority    Priority `json:"priority" gorm:"default:'medium'"`
}

// TableName specifies the table name for Epic Model
func (Epic) TableName() string {
	return "epics"
}
