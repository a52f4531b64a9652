package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// ProjectRepository provides methods to interact with the Project model in the database.
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository instance with the provided GORM database connection.
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new Project.
func (r *ProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// Get retrieves a Project by its ID. Soft-deleted projects are not found.
func (r *ProjectRepository) Get(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetPublicByShareToken retrieves a shared project with its flows and
// screens in display order.
func (r *ProjectRepository) GetPublicByShareToken(token string) (*models.Project, error) {
	var project models.Project
	err := r.withTree(r.db).
		Where("share_token = ? AND is_public = ?", token, true).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetWithTree retrieves a Project along with its ordered flows and screens.
func (r *ProjectRepository) GetWithTree(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.withTree(r.db).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) withTree(db *gorm.DB) *gorm.DB {
	return db.Preload("Flows", byOrder).Preload("Flows.Screens", byOrder)
}

// List returns the projects visible through scope, newest first.
func (r *ProjectRepository) List(scope func(*gorm.DB) *gorm.DB) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.Scopes(scope).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// Update saves every column of an existing Project.
func (r *ProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete soft-deletes a Project together with its flows and their screens.
func (r *ProjectRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		flowIDs := tx.Model(&models.Flow{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("flow_id IN (?)", flowIDs).Delete(&models.Screen{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Flow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
