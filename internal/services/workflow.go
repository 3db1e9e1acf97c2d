package services

import (
	"errors"
	"strings"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

// WorkflowService mutates work items and epics under the status and
// hierarchy rules. Every status change goes through the StatusService and
// every parent change through the HierarchyService.
type WorkflowService struct {
	db        *gorm.DB
	statuses  *StatusService
	hierarchy *HierarchyService
	keys      *KeyService
}

// NewWorkflowService constructs a WorkflowService and its collaborators.
func NewWorkflowService(db *gorm.DB, statuses *StatusService, hierarchy *HierarchyService, keys *KeyService) *WorkflowService {
	return &WorkflowService{db: db, statuses: statuses, hierarchy: hierarchy, keys: keys}
}

func (s *WorkflowService) userExists(id uint) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user %d not found", id)
		}
		return err
	}
	return nil
}

// requireActiveStatus loads a status and rejects inactive ones: items may
// only sit in active statuses.
func (s *WorkflowService) requireActiveStatus(id uint) (*models.Status, error) {
	status, err := s.statuses.GetStatus(id)
	if err != nil {
		return nil, err
	}
	if !status.IsActive {
		return nil, apperrors.BadRequest("status %q is inactive", status.Name)
	}
	return status, nil
}

// CreateWorkItemInput carries the fields for a new work item.
type CreateWorkItemInput struct {
	ProjectID   uint
	Summary     string
	Description string
	Type        models.WorkItemType
	Priority    models.Priority
	AssigneeID  *uint
	EpicID      *uint
	ParentID    *uint
}

// CreateWorkItem creates a work item in the default status with a freshly
// allocated key. The reporter is the caller.
func (s *WorkflowService) CreateWorkItem(in CreateWorkItemInput, callerID uint) (*models.WorkItem, error) {
	var project models.Project
	if err := s.db.First(&project, in.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project %d not found", in.ProjectID)
		}
		return nil, err
	}

	if strings.TrimSpace(in.Summary) == "" {
		return nil, apperrors.BadRequest("summary is required")
	}
	if !in.Type.IsValid() {
		return nil, apperrors.BadRequest("invalid work item type %q", in.Type)
	}

	if in.AssigneeID != nil {
		if err := s.userExists(*in.AssigneeID); err != nil {
			return nil, err
		}
	}
	if in.EpicID != nil {
		epic, err := s.GetEpic(*in.EpicID)
		if err != nil {
			return nil, err
		}
		if epic.ProjectID != in.ProjectID {
			return nil, apperrors.BadRequest("epic %s belongs to a different project", epic.Key)
		}
	}
	if in.ParentID != nil {
		if err := s.hierarchy.ValidateParent(in.Type, *in.ParentID, in.ProjectID); err != nil {
			return nil, err
		}
	}

	defaultStatus, err := s.statuses.DefaultStatus()
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	item := models.WorkItem{
		ProjectID:   in.ProjectID,
		Summary:     strings.TrimSpace(in.Summary),
		Description: in.Description,
		Type:        in.Type,
		StatusID:    defaultStatus.ID,
		AssigneeID:  in.AssigneeID,
		ReporterID:  callerID,
		Priority:    priority,
		ParentID:    in.ParentID,
		EpicID:      in.EpicID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		key, err := s.keys.NextKey(tx, in.ProjectID, models.KeyKindWorkItem)
		if err != nil {
			return err
		}
		item.Key = key
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetWorkItem fetches one work item by id.
func (s *WorkflowService) GetWorkItem(id uint) (*models.WorkItem, error) {
	var item models.WorkItem
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("work item %d not found", id)
		}
		return nil, err
	}
	return &item, nil
}

// ListWorkItems returns all work items of a project.
func (s *WorkflowService) ListWorkItems(projectID uint) ([]models.WorkItem, error) {
	var items []models.WorkItem
	if err := s.db.Where("project_id = ?", projectID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateWorkItemInput carries optional updates; nil fields are unchanged.
// ClearEpic detaches the item from its epic.
type UpdateWorkItemInput struct {
	Summary     *string
	Description *string
	Priority    *models.Priority
	Type        *models.WorkItemType
	EpicID      *uint
	ClearEpic   bool
}

// UpdateWorkItem applies field updates. A type change is re-checked
// against the hierarchy rules for both the item's parent and its children.
func (s *WorkflowService) UpdateWorkItem(id uint, in UpdateWorkItemInput) (*models.WorkItem, error) {
	item, err := s.GetWorkItem(id)
	if err != nil {
		return nil, err
	}

	if in.Summary != nil {
		if strings.TrimSpace(*in.Summary) == "" {
			return nil, apperrors.BadRequest("summary is required")
		}
		item.Summary = strings.TrimSpace(*in.Summary)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Priority != nil {
		item.Priority = *in.Priority
	}
	if in.Type != nil {
		if !in.Type.IsValid() {
			return nil, apperrors.BadRequest("invalid work item type %q", *in.Type)
		}
		if *in.Type != item.Type {
			if item.ParentID != nil {
				if err := s.hierarchy.ValidateParent(*in.Type, *item.ParentID, item.ProjectID); err != nil {
					return nil, err
				}
			}
			if *in.Type != models.TypeTask {
				var children int64
				if err := s.db.Model(&models.WorkItem{}).Where("parent_work_item_id = ?", id).Count(&children).Error; err != nil {
					return nil, err
				}
				if children > 0 {
					return nil, apperrors.InvalidHierarchy("work item %s has subtasks and must stay a task", item.Key)
				}
			}
			item.Type = *in.Type
		}
	}
	if in.ClearEpic {
		item.EpicID = nil
	} else if in.EpicID != nil {
		epic, err := s.GetEpic(*in.EpicID)
		if err != nil {
			return nil, err
		}
		if epic.ProjectID != item.ProjectID {
			return nil, apperrors.BadRequest("epic %s belongs to a different project", epic.Key)
		}
		item.EpicID = in.EpicID
	}

	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateWorkItemStatus moves a work item to another status if the
// transition rules allow it. Moving to the current status is a no-op.
func (s *WorkflowService) UpdateWorkItemStatus(id uint, statusID uint) (*models.WorkItem, error) {
	item, err := s.GetWorkItem(id)
	if err != nil {
		return nil, err
	}
	status, err := s.requireActiveStatus(statusID)
	if err != nil {
		return nil, err
	}
	if item.StatusID == status.ID {
		return item, nil
	}

	allowed, err := s.statuses.ValidateTransition(item.StatusID, status.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.InvalidStatusTransition("transition to status %q is not allowed", status.Name)
	}

	item.StatusID = status.ID
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// AssignWorkItem sets or clears (nil) the assignee.
func (s *WorkflowService) AssignWorkItem(id uint, assigneeID *uint) (*models.WorkItem, error) {
	item, err := s.GetWorkItem(id)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.userExists(*assigneeID); err != nil {
			return nil, err
		}
	}
	item.AssigneeID = assigneeID
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateWorkItemParent reparents a work item (nil detaches it). The cycle
// walk runs before the type rules.
func (s *WorkflowService) UpdateWorkItemParent(id uint, parentID *uint) (*models.WorkItem, error) {
	item, err := s.GetWorkItem(id)
	if err != nil {
		return nil, err
	}
	if parentID == nil {
		item.ParentID = nil
		if err := s.db.Save(item).Error; err != nil {
			return nil, err
		}
		return item, nil
	}

	// cycle detection runs first: a looping chain is reported as such even
	// when the type rules would also reject the parent
	if err := s.hierarchy.CheckCycle(item.ID, *parentID); err != nil {
		return nil, err
	}
	if err := s.hierarchy.ValidateParent(item.Type, *parentID, item.ProjectID); err != nil {
		return nil, err
	}

	item.ParentID = parentID
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteWorkItem removes a work item. Deletion is blocked while the item
// still has subtasks.
func (s *WorkflowService) DeleteWorkItem(id uint) error {
	item, err := s.GetWorkItem(id)
	if err != nil {
		return err
	}
	var children int64
	if err := s.db.Model(&models.WorkItem{}).Where("parent_work_item_id = ?", id).Count(&children).Error; err != nil {
		return err
	}
	if children > 0 {
		return apperrors.BadRequest("work item %s still has %d subtask(s)", item.Key, children)
	}
	return s.db.Delete(item).Error
}

// CreateEpicInput carries the fields for a new epic.
type CreateEpicInput struct {
	ProjectID   uint
	Name        string
	Description string
	Priority    models.Priority
	AssigneeID  *uint
}

// CreateEpic creates an epic in the default status with a freshly
// allocated "<KEY>-EPIC-n" key.
func (s *WorkflowService) CreateEpic(in CreateEpicInput, callerID uint) (*models.Epic, error) {
	var project models.Project
	if err := s.db.First(&project, in.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project %d not found", in.ProjectID)
		}
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.BadRequest("epic name is required")
	}
	if in.AssigneeID != nil {
		if err := s.userExists(*in.AssigneeID); err != nil {
			return nil, err
		}
	}

	defaultStatus, err := s.statuses.DefaultStatus()
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	epic := models.Epic{
		ProjectID:   in.ProjectID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StatusID:    defaultStatus.ID,
		AssigneeID:  in.AssigneeID,
		ReporterID:  callerID,
		Priority:    priority,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		key, err := s.keys.NextKey(tx, in.ProjectID, models.KeyKindEpic)
		if err != nil {
			return err
		}
		epic.Key = key
		return tx.Create(&epic).Error
	})
	if err != nil {
		return nil, err
	}
	return &epic, nil
}

// GetEpic fetches one epic by id.
func (s *WorkflowService) GetEpic(id uint) (*models.Epic, error) {
	var epic models.Epic
	if err := s.db.First(&epic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("epic %d not found", id)
		}
		return nil, err
	}
	return &epic, nil
}

// ListEpics returns all epics of a project.
func (s *WorkflowService) ListEpics(projectID uint) ([]models.Epic, error) {
	var epics []models.Epic
	if err := s.db.Where("project_id = ?", projectID).Order("id asc").Find(&epics).Error; err != nil {
		return nil, err
	}
	return epics, nil
}

// UpdateEpicInput carries optional updates; nil fields are unchanged.
type UpdateEpicInput struct {
	Name        *string
	Description *string
	Priority    *models.Priority
}

// UpdateEpic applies field updates to an epic.
func (s *WorkflowService) UpdateEpic(id uint, in UpdateEpicInput) (*models.Epic, error) {
	epic, err := s.GetEpic(id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.BadRequest("epic name is required")
		}
		epic.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		epic.Description = *in.Description
	}
	if in.Priority != nil {
		epic.Priority = *in.Priority
	}
	if err := s.db.Save(epic).Error; err != nil {
		return nil, err
	}
	return epic, nil
}

// UpdateEpicStatus moves an epic through the same transition rules as work
// items.
func (s *WorkflowService) UpdateEpicStatus(id uint, statusID uint) (*models.Epic, error) {
	epic, err := s.GetEpic(id)
	if err != nil {
		return nil, err
	}
	status, err := s.requireActiveStatus(statusID)
	if err != nil {
		return nil, err
	}
	if epic.StatusID == status.ID {
		return epic, nil
	}

	allowed, err := s.statuses.ValidateTransition(epic.StatusID, status.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.InvalidStatusTransition("transition to status %q is not allowed", status.Name)
	}

	epic.StatusID = status.ID
	if err := s.db.Save(epic).Error; err != nil {
		return nil, err
	}
	return epic, nil
}

// AssignEpic sets or clears (nil) the assignee.
func (s *WorkflowService) AssignEpic(id uint, assigneeID *uint) (*models.Epic, error) {
	epic, err := s.GetEpic(id)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.userExists(*assigneeID); err != nil {
			return nil, err
		}
	}
	epic.AssigneeID = assigneeID
	if err := s.db.Save(epic).Error; err != nil {
		return nil, err
	}
	return epic, nil
}

// DeleteEpic removes an epic. Deletion is blocked while work items are
// still attached to it.
func (s *WorkflowService) DeleteEpic(id uint) error {
	epic, err := s.GetEpic(id)
	if err != nil {
		return err
	}
	var attached int64
	if err := s.db.Model(&models.WorkItem{}).Where("epic_id = ?", id).Count(&attached).Error; err != nil {
		return err
	}
	if attached > 0 {
		return apperrors.BadRequest("epic %s still has %d work item(s) attached", epic.Key, attached)
	}
	return s.db.Delete(epic).Error
}
