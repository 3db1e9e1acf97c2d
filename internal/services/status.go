package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/cache"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

// ruleCacheTTL bounds how long a cached transition verdict may outlive a
// rule edit made by another process against the same database.
const ruleCacheTTL = 30 * time.Second

const maxStatusNameLen = 50

// StatusService owns status definitions and transition rules; it is the
// authority for "is moving an item from X to Y allowed".
type StatusService struct {
	db    *gorm.DB
	rules *cache.TTLCache[string, bool]
}

// NewStatusService constructs a StatusService backed by db.
func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{
		db:    db,
		rules: cache.NewTTLCache[string, bool](),
	}
}

// CreateStatusInput carries the fields for a new status.
type CreateStatusInput struct {
	Name            string
	Color           string
	OrderIndex      int
	IsDefaultForNew bool
	IsCompleted     bool
	IsCancelled     bool
}

// UpdateStatusInput carries optional updates; nil fields are left unchanged.
type UpdateStatusInput struct {
	Name            *string
	Color           *string
	OrderIndex      *int
	IsDefaultForNew *bool
	IsCompleted     *bool
	IsCancelled     *bool
	IsActive        *bool
}

// CreateStatus adds a new workflow status. Names are unique across all
// statuses, active or not.
func (s *StatusService) CreateStatus(in CreateStatusInput) (*models.Status, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("status name is required")
	}
	if len(name) > maxStatusNameLen {
		return nil, apperrors.BadRequest("status name must be at most %d characters", maxStatusNameLen)
	}

	var count int64
	if err := s.db.Model(&models.Status{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.BadRequest("status name %q is already taken", name)
	}

	status := models.Status{
		Name:            name,
		Color:           in.Color,
		OrderIndex:      in.OrderIndex,
		IsDefaultForNew: in.IsDefaultForNew,
		IsCompleted:     in.IsCompleted,
		IsCancelled:     in.IsCancelled,
		IsActive:        true,
	}
	if err := s.db.Create(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// UpdateStatus applies the non-nil fields of in to the status.
func (s *StatusService) UpdateStatus(id uint, in UpdateStatusInput) (*models.Status, error) {
	status, err := s.GetStatus(id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.BadRequest("status name is required")
		}
		if len(name) > maxStatusNameLen {
			return nil, apperrors.BadRequest("status name must be at most %d characters", maxStatusNameLen)
		}
		var count int64
		if err := s.db.Model(&models.Status{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperrors.BadRequest("status name %q is already taken", name)
		}
		status.Name = name
	}
	if in.Color != nil {
		status.Color = *in.Color
	}
	if in.OrderIndex != nil {
		status.OrderIndex = *in.OrderIndex
	}
	if in.IsDefaultForNew != nil {
		status.IsDefaultForNew = *in.IsDefaultForNew
	}
	if in.IsCompleted != nil {
		status.IsCompleted = *in.IsCompleted
	}
	if in.IsCancelled != nil {
		status.IsCancelled = *in.IsCancelled
	}
	if in.IsActive != nil {
		status.IsActive = *in.IsActive
	}

	if err := s.db.Save(status).Error; err != nil {
		return nil, err
	}
	return status, nil
}

// DeleteStatus removes a status and its transition rules. Deletion is
// refused while any epic or work item still references the status.
func (s *StatusService) DeleteStatus(id uint) error {
	status, err := s.GetStatus(id)
	if err != nil {
		return err
	}

	var itemCount int64
	if err := s.db.Model(&models.WorkItem{}).Where("status_id = ?", id).Count(&itemCount).Error; err != nil {
		return err
	}
	var epicCount int64
	if err := s.db.Model(&models.Epic{}).Where("status_id = ?", id).Count(&epicCount).Error; err != nil {
		return err
	}
	if itemCount > 0 || epicCount > 0 {
		return apperrors.BadRequest("status %q is still referenced by %d work item(s) and %d epic(s)", status.Name, itemCount, epicCount)
	}

	// hard delete: a soft-deleted row would keep the name locked in the
	// unique index, and deleted statuses are never restored
	if err := s.db.Unscoped().Where("from_status_id = ? OR to_status_id = ?", id, id).Delete(&models.StatusTransition{}).Error; err != nil {
		return err
	}
	if err := s.db.Unscoped().Delete(status).Error; err != nil {
		return err
	}
	s.rules.Clear()
	return nil
}

// GetStatus fetches one status by id.
func (s *StatusService) GetStatus(id uint) (*models.Status, error) {
	var status models.Status
	if err := s.db.First(&status, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("status %d not found", id)
		}
		return nil, err
	}
	return &status, nil
}

// ListStatuses returns all statuses in display order.
func (s *StatusService) ListStatuses() ([]models.Status, error) {
	var statuses []models.Status
	if err := s.db.Order("order_index asc, id asc").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// ListActiveStatuses returns active statuses in display order.
func (s *StatusService) ListActiveStatuses() ([]models.Status, error) {
	var statuses []models.Status
	if err := s.db.Where("is_active = ?", true).Order("order_index asc, id asc").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// DefaultStatus returns the status new items are created in.
func (s *StatusService) DefaultStatus() (*models.Status, error) {
	var status models.Status
	err := s.db.Where("is_default_for_new = ? AND is_active = ?", true, true).
		Order("order_index asc, id asc").First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.BadRequest("no default status is configured")
		}
		return nil, err
	}
	return &status, nil
}

// ValidateTransition reports whether moving an item from one status to
// another is permitted. A same-status move is always valid. An explicit
// rule row decides its pair; a pair with no rule is allowed by default.
// Note the asymmetry with ListAllowedTargets, which reports only pairs an
// explicit allow rule exists for.
func (s *StatusService) ValidateTransition(fromID, toID uint) (bool, error) {
	if fromID == toID {
		return true, nil
	}

	key := fmt.Sprintf("%d:%d", fromID, toID)
	if allowed, ok := s.rules.Get(key); ok {
		return allowed, nil
	}

	var rule models.StatusTransition
	err := s.db.Where("from_status_id = ? AND to_status_id = ?", fromID, toID).First(&rule).Error
	allowed := true
	switch {
	case err == nil:
		allowed = rule.IsAllowed
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no rule: permissive default
	default:
		return false, err
	}

	s.rules.Set(key, allowed, ruleCacheTTL)
	return allowed, nil
}

// ListAllowedTargets returns the statuses an explicit allow rule exists for
// from the given status, in display order. Pairs that are merely permitted
// by the default are not listed; see ValidateTransition.
func (s *StatusService) ListAllowedTargets(fromID uint) ([]models.Status, error) {
	if _, err := s.GetStatus(fromID); err != nil {
		return nil, err
	}

	var statuses []models.Status
	err := s.db.Model(&models.Status{}).
		Joins("JOIN status_transitions ON status_transitions.to_status_id = statuses.id AND status_transitions.deleted_at IS NULL").
		Where("status_transitions.from_status_id = ? AND status_transitions.is_allowed = ?", fromID, true).
		Order("statuses.order_index asc, statuses.id asc").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// CreateStatusTransition records an explicit allow/deny rule for the
// ordered (from, to) pair. At most one rule may exist per pair.
func (s *StatusService) CreateStatusTransition(fromID, toID uint, isAllowed bool) (*models.StatusTransition, error) {
	if _, err := s.GetStatus(fromID); err != nil {
		return nil, err
	}
	if _, err := s.GetStatus(toID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.StatusTransition{}).
		Where("from_status_id = ? AND to_status_id = ?", fromID, toID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.BadRequest("a transition rule from status %d to status %d already exists", fromID, toID)
	}

	rule := models.StatusTransition{
		FromStatusID: fromID,
		ToStatusID:   toID,
		IsAllowed:    isAllowed,
	}
	if err := s.db.Create(&rule).Error; err != nil {
		return nil, err
	}
	s.rules.Clear()
	return &rule, nil
}

// CreateDefaultStatuses seeds the standard five-status workflow. It is an
// idempotent bootstrap: if any status already exists, nothing is written
// and the current set is returned.
func (s *StatusService) CreateDefaultStatuses() ([]models.Status, error) {
	var count int64
	if err := s.db.Model(&models.Status{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return s.ListStatuses()
	}

	defaults := []models.Status{
		{Name: "BACKLOG", Color: "#6B778C", OrderIndex: 0, IsActive: true},
		{Name: "TODO", Color: "#42526E", OrderIndex: 1, IsDefaultForNew: true, IsActive: true},
		{Name: "IN PROGRESS", Color: "#0052CC", OrderIndex: 2, IsActive: true},
		{Name: "DONE", Color: "#36B37E", OrderIndex: 3, IsCompleted: true, IsActive: true},
		{Name: "CANCELLED", Color: "#DE350B", OrderIndex: 4, IsCancelled: true, IsActive: true},
	}
	if err := s.db.Create(&defaults).Error; err != nil {
		return nil, err
	}
	return defaults, nil
}
