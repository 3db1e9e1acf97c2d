package services

import (
	"errors"
	"strings"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

const maxProjectKeyLen = 10

// ProjectService is plain CRUD for projects; the workflow and board
// services consult it only for existence and ownership.
type ProjectService struct {
	db *gorm.DB
}

// NewProjectService constructs a ProjectService backed by db.
func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// CreateProjectInput carries the fields for a new project.
type CreateProjectInput struct {
	Key         string
	Name        string
	Description string
}

// CreateProject registers a project owned by callerID. The key prefixes
// every generated entity key and cannot be changed later.
func (s *ProjectService) CreateProject(in CreateProjectInput, callerID uint) (*models.Project, error) {
	key := strings.ToUpper(strings.TrimSpace(in.Key))
	if key == "" {
		return nil, apperrors.BadRequest("project key is required")
	}
	if len(key) > maxProjectKeyLen {
		return nil, apperrors.BadRequest("project key must be at most %d characters", maxProjectKeyLen)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.BadRequest("project name is required")
	}

	var count int64
	if err := s.db.Model(&models.Project{}).Where("key = ?", key).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.BadRequest("project key %q is already taken", key)
	}

	project := models.Project{
		Key:         key,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		OwnerID:     callerID,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject fetches one project by id.
func (s *ProjectService) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project %d not found", id)
		}
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects.
func (s *ProjectService) ListProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Order("id asc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProjectInput carries optional updates; nil fields are unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// UpdateProject is owner-only and leaves the key immutable.
func (s *ProjectService) UpdateProject(id uint, in UpdateProjectInput, callerID uint) (*models.Project, error) {
	project, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may update the project")
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.BadRequest("project name is required")
		}
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if err := s.db.Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject is owner-only and refused while the project still contains
// epics or work items.
func (s *ProjectService) DeleteProject(id uint, callerID uint) error {
	project, err := s.GetProject(id)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return apperrors.Forbidden("only the project owner may delete the project")
	}

	var itemCount int64
	if err := s.db.Model(&models.WorkItem{}).Where("project_id = ?", id).Count(&itemCount).Error; err != nil {
		return err
	}
	var epicCount int64
	if err := s.db.Model(&models.Epic{}).Where("project_id = ?", id).Count(&epicCount).Error; err != nil {
		return err
	}
	if itemCount > 0 || epicCount > 0 {
		return apperrors.BadRequest("project still contains %d work item(s) and %d epic(s)", itemCount, epicCount)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var board models.Board
		err := tx.Where("project_id = ?", id).First(&board).Error
		if err == nil {
			if err := tx.Where("board_id = ?", board.ID).Delete(&models.BoardColumn{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&board).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.KeySequence{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}
