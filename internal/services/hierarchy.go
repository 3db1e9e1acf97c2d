package services

import (
	"errors"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

// parentRule describes what a work item type accepts as its parent.
// Expressing the constraints as data keeps adding a type a table edit.
type parentRule struct {
	AllowsParent     bool
	ParentTypes      []models.WorkItemType
	ParentMustBeRoot bool
}

var workItemParentRules = map[models.WorkItemType]parentRule{
	models.TypeTask: {},
	models.TypeBug:  {},
	models.TypeSubtask: {
		AllowsParent:     true,
		ParentTypes:      []models.WorkItemType{models.TypeTask},
		ParentMustBeRoot: true,
	},
}

func (r parentRule) acceptsParentType(t models.WorkItemType) bool {
	for _, pt := range r.ParentTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// ParentIDFunc resolves an entity's parent id, nil meaning "no parent".
// It abstracts the entity table so the cycle walk works for any
// hierarchical entity.
type ParentIDFunc func(id uint) (*uint, error)

// WouldCreateCycle walks the parent chain upward from proposedParentID and
// reports whether attaching it under itemID would loop. The visited set is
// seeded with itemID, so "parent is itself" and "parent chain leads back to
// the item" are both caught; a pre-existing loop in the chain terminates
// the walk too instead of spinning.
func WouldCreateCycle(itemID, proposedParentID uint, parentOf ParentIDFunc) (bool, error) {
	visited := map[uint]struct{}{itemID: {}}
	current := proposedParentID
	for {
		if _, seen := visited[current]; seen {
			return true, nil
		}
		visited[current] = struct{}{}

		parent, err := parentOf(current)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, nil
		}
		current = *parent
	}
}

// HierarchyService evaluates the nesting rules for work items.
type HierarchyService struct {
	db *gorm.DB
}

// NewHierarchyService constructs a HierarchyService backed by db.
func NewHierarchyService(db *gorm.DB) *HierarchyService {
	return &HierarchyService{db: db}
}

// workItemParentID is the ParentIDFunc for the work item table.
func (h *HierarchyService) workItemParentID(id uint) (*uint, error) {
	var item models.WorkItem
	if err := h.db.Select("parent_work_item_id").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// dangling parent reference: treat as end of chain
			return nil, nil
		}
		return nil, err
	}
	return item.ParentID, nil
}

// ValidateParent checks the proposed parent of a work item of the given
// type against the rule table. proposedParentID must be non-nil; callers
// handle the nil case (which every type accepts).
func (h *HierarchyService) ValidateParent(childType models.WorkItemType, proposedParentID uint, projectID uint) error {
	rule, ok := workItemParentRules[childType]
	if !ok {
		return apperrors.BadRequest("unknown work item type %q", childType)
	}
	if !rule.AllowsParent {
		return apperrors.InvalidHierarchy("a %s cannot have a parent", childType)
	}

	var parent models.WorkItem
	if err := h.db.First(&parent, proposedParentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("parent work item %d not found", proposedParentID)
		}
		return err
	}
	if parent.ProjectID != projectID {
		return apperrors.BadRequest("parent work item %s belongs to a different project", parent.Key)
	}
	if !rule.acceptsParentType(parent.Type) {
		return apperrors.InvalidHierarchy("a %s cannot be nested under a %s", childType, parent.Type)
	}
	if rule.ParentMustBeRoot && parent.ParentID != nil {
		return apperrors.InvalidHierarchy("parent %s is itself nested; only one level of nesting is allowed", parent.Key)
	}
	return nil
}

// CheckCycle rejects a reparenting of itemID under proposedParentID that
// would create a loop in the parent chain.
func (h *HierarchyService) CheckCycle(itemID, proposedParentID uint) error {
	cycle, err := WouldCreateCycle(itemID, proposedParentID, h.workItemParentID)
	if err != nil {
		return err
	}
	if cycle {
		return apperrors.CircularHierarchy("setting this parent would create a cycle in the work item hierarchy")
	}
	return nil
}
