package services

import (
	"testing"

	"project-planning-api/internal/models"
	"project-planning-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x", FullName: username}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, key string, ownerID uint) models.Project {
	t.Helper()
	project := models.Project{Key: key, Name: key + " project", OwnerID: ownerID}
	require.NoError(t, db.Create(&project).Error)
	return project
}

// seedDefaultStatuses bootstraps the standard five statuses and returns
// them keyed by name.
func seedDefaultStatuses(t *testing.T, statuses *StatusService) map[string]models.Status {
	t.Helper()
	seeded, err := statuses.CreateDefaultStatuses()
	require.NoError(t, err)
	byName := make(map[string]models.Status, len(seeded))
	for _, st := range seeded {
		byName[st.Name] = st
	}
	return byName
}

func seedWorkItem(t *testing.T, db *gorm.DB, projectID uint, key string, itemType models.WorkItemType, statusID uint) models.WorkItem {
	t.Helper()
	item := models.WorkItem{
		ProjectID: projectID,
		Key:       key,
		Summary:   "seeded " + key,
		Type:      itemType,
		StatusID:  statusID,
		Priority:  models.PriorityMedium,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}
