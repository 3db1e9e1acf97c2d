package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

// KeyService hands out project-scoped display keys: "ABC-7" for work items
// and "ABC-EPIC-2" for epics. Keys are monotonically increasing per
// (project, kind) and never reused, even after the owning entity is gone.
type KeyService struct {
	db *gorm.DB
}

// NewKeyService constructs a KeyService backed by db.
func NewKeyService(db *gorm.DB) *KeyService {
	return &KeyService{db: db}
}

// NextKey allocates the next key for the project and kind. It must be
// called with the transaction the entity is created in, so the sequence
// bump commits or rolls back together with the new row. Allocation is an
// atomic in-place increment of the per-(project, kind) sequence; the
// unique (project_id, key) index remains as the backstop.
func (k *KeyService) NextKey(tx *gorm.DB, projectID uint, kind models.KeyKind) (string, error) {
	var project models.Project
	if err := tx.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound("project %d not found", projectID)
		}
		return "", err
	}

	prefix := project.Key + "-"
	if kind == models.KeyKindEpic {
		prefix = project.Key + "-EPIC-"
	}

	res := tx.Model(&models.KeySequence{}).
		Where("project_id = ? AND kind = ?", projectID, kind).
		UpdateColumn("next_value", gorm.Expr("next_value + 1"))
	if res.Error != nil {
		return "", res.Error
	}

	if res.RowsAffected == 0 {
		// First allocation for this (project, kind): seed the sequence from
		// whatever keys already exist so manually entered rows are honored.
		maxSeen, err := k.maxExistingKey(tx, projectID, kind, prefix)
		if err != nil {
			return "", err
		}
		seq := models.KeySequence{
			ProjectID: projectID,
			Kind:      kind,
			NextValue: maxSeen + 1,
		}
		if err := tx.Create(&seq).Error; err != nil {
			// A concurrent allocator seeded the row first; fall back to a bump.
			res = tx.Model(&models.KeySequence{}).
				Where("project_id = ? AND kind = ?", projectID, kind).
				UpdateColumn("next_value", gorm.Expr("next_value + 1"))
			if res.Error != nil {
				return "", res.Error
			}
			if res.RowsAffected == 0 {
				// the row we just lost the insert race for has vanished again
				return "", fmt.Errorf("key sequence for project %d kind %s disappeared after losing the seed race: %w", projectID, kind, err)
			}
		} else {
			return fmt.Sprintf("%s%d", prefix, seq.NextValue), nil
		}
	}

	var seq models.KeySequence
	if err := tx.Where("project_id = ? AND kind = ?", projectID, kind).First(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", prefix, seq.NextValue), nil
}

// maxExistingKey scans the existing keys of the kind under the project and
// returns the highest numeric suffix. Keys whose suffix does not parse as
// an integer are skipped, so a hand-entered or corrupted key never wedges
// allocation.
func (k *KeyService) maxExistingKey(tx *gorm.DB, projectID uint, kind models.KeyKind, prefix string) (int, error) {
	var keys []string
	var err error
	if kind == models.KeyKindEpic {
		err = tx.Model(&models.Epic{}).Where("project_id = ?", projectID).Pluck("key", &keys).Error
	} else {
		err = tx.Model(&models.WorkItem{}).Where("project_id = ?", projectID).Pluck("key", &keys).Error
	}
	if err != nil {
		return 0, err
	}

	maxSeen := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		if n > maxSeen {
			maxSeen = n
		}
	}
	return maxSeen, nil
}
