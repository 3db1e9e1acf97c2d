package models

import (
	"gorm.io/gorm"
)

// Board is the single Kanban view of a project. The unique index on
// ProjectID is the safety net against two concurrent creations.
type Board struct {
	gorm.Model
	ProjectID   uint   `json:"projectId" gorm:"column:project_id;not null;uniqueIndex"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
}

// TableName specifies the table name for Board Model
func (Board) TableName() string {
	return "boards"
}

// BoardColumn is a board's per-status lane. Columns are a snapshot of the
// status set taken when the board was created; OrderIndex values form a
// contiguous permutation of 0..N-1 per board. Version is the optimistic
// concurrency token: a write against a stale version is rejected.
type BoardColumn struct {
	gorm.Model
	BoardID     uint `json:"boardId" gorm:"column:board_id;not null;index;uniqueIndex:idx_board_column_status"`
	StatusID    uint `json:"statusId" gorm:"column:status_id;not null;uniqueIndex:idx_board_column_status"`
	OrderIndex  int  `json:"orderIndex" gorm:"column:order_index;not null"`
	WIPLimit    *int `json:"wipLimit" gorm:"column:wip_limit"`
	IsCollapsed bool `json:"isCollapsed" gorm:"column:is_collapsed;not null;default:false"`
	Version     uint `json:"version" gorm:"not null;default:1"`
}

// TableName specifies the table name for BoardColumn Model
func (BoardColumn) TableName() string {
	return "board_columns"
}
