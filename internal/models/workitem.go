package models

import (
	"gorm.io/gorm"
)

// WorkItemType represents the type of a work item (task, bug, subtask)
type WorkItemType string

const (
	TypeTask    WorkItemType = "task"
	TypeBug     WorkItemType = "bug"
	TypeSubtask WorkItemType = "subtask"
)

// IsValid returns true if the type is a known value.
func (t WorkItemType) IsValid() bool {
	switch t {
	case TypeTask, TypeBug, TypeSubtask:
		return true
	default:
		return false
	}
}

// Priority represents the priority of a work item or epic
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// WorkItem is a trackable unit of work. Key is generated per project and
// never reused; ParentID may only point at a task when the item is a
// subtask (nesting is capped at one level).
type WorkItem struct {
	gorm.Model
	ProjectID   uint         `json:"projectId" gorm:"column:project_id;not null;index;uniqueIndex:idx_work_item_key"`
	Key         string       `json:"key" gorm:"not null;uniqueIndex:idx_work_item_key"`
	Summary     string       `json:"summary" gorm:"not null"`
	Description string       `json:"description"`
	Type        WorkItemType `json:"type" gorm:"not null;default:'task'"`
	StatusID    uint         `json:"statusId" gorm:"column:status_id;not null;index"`
	AssigneeID  *uint        `json:"assigneeId" gorm:"column:assignee_id"`
	ReporterID  uint         `json:"reporterId" gorm:"column:reporter_id"`
	Priority    Priority     `json:"priority" gorm:"default:'medium'"`
	ParentID    *uint        `json:"parentWorkItemId" gorm:"column:parent_work_item_id;index"`
	EpicID      *uint        `json:"epicId" gorm:"column:epic_id;index"`
}

// TableName specifies the table name for WorkItem Model
func (WorkItem) TableName() string {
	return "work_items"
}
