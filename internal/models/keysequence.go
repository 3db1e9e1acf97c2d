package models

import (
	"gorm.io/gorm"
)

// KeyKind selects which key namespace a sequence covers.
type KeyKind string

const (
	KeyKindEpic     KeyKind = "epic"
	KeyKindWorkItem KeyKind = "workItem"
)

// KeySequence is the per-(project, kind) counter behind key generation.
// NextValue holds the number most recently issued; allocation bumps it
// atomically so concurrent creations in one project cannot collide.
type KeySequence struct {
	gorm.Model
	ProjectID uint    `json:"projectId" gorm:"column:project_id;not null;uniqueIndex:idx_key_sequence"`
	Kind      KeyKind `json:"kind" gorm:"not null;uniqueIndex:idx_key_sequence"`
	NextValue int     `json:"nextValue" gorm:"column:next_value;not null"`
}

// TableName specifies the table name for KeySequence Model
func (KeySequence) TableName() string {
	return "key_sequences"
}
