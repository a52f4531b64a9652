package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// FlowRepository persists flows.
type FlowRepository struct {
	db *gorm.DB
}

func NewFlowRepository(db *gorm.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

func (r *FlowRepository) Create(flow *models.Flow) error {
	return r.db.Create(flow).Error
}

func (r *FlowRepository) Get(id uuid.UUID) (*models.Flow, error) {
	var flow models.Flow
	if err := r.db.First(&flow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flow, nil
}

// ListByProject returns the project's flows in display order.
func (r *FlowRepository) ListByProject(projectID uuid.UUID) ([]models.Flow, error) {
	flows := []models.Flow{}
	err := r.db.Scopes(byOrder).Where("project_id = ?", projectID).Find(&flows).Error
	return flows, err
}

func (r *FlowRepository) NextOrderIndex(projectID uuid.UUID) (int, error) {
	return nextOrderIndex(r.db, &models.Flow{}, "project_id", projectID)
}

func (r *FlowRepository) Update(flow *models.Flow) error {
	return r.db.Save(flow).Error
}

// Delete soft-deletes a flow and its screens.
func (r *FlowRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flow_id = ?", id).Delete(&models.Screen{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Flow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Reorder sets the order of the given flows within a project.
func (r *FlowRepository) Reorder(projectID uuid.UUID, ids []uuid.UUID) error {
	return reorder(r.db, &models.Flow{}, "project_id", projectID, ids)
}
