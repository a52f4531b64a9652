package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// ScreenRepository persists screens.
type ScreenRepository struct {
	db *gorm.DB
}

func NewScreenRepository(db *gorm.DB) *ScreenRepository {
	return &ScreenRepository{db: db}
}

func (r *ScreenRepository) Create(screen *models.Screen) error {
	return r.db.Create(screen).Error
}

// CreateBatch inserts screens in one transaction.
func (r *ScreenRepository) CreateBatch(screens []*models.Screen) error {
	if len(screens) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, s := range screens {
			if err := tx.Create(s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ScreenRepository) Get(id uuid.UUID) (*models.Screen, error) {
	var screen models.Screen
	if err := r.db.First(&screen, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &screen, nil
}

// ListByFlow returns the flow's screens in display order.
func (r *ScreenRepository) ListByFlow(flowID uuid.UUID) ([]models.Screen, error) {
	screens := []models.Screen{}
	err := r.db.Scopes(byOrder).Where("flow_id = ?", flowID).Find(&screens).Error
	return screens, err
}

// ListByIDs returns the listed screens that share the flow.
func (r *ScreenRepository) ListByIDs(flowID uuid.UUID, ids []uuid.UUID) ([]models.Screen, error) {
	screens := []models.Screen{}
	if len(ids) == 0 {
		return screens, nil
	}
	err := r.db.Scopes(byOrder).Where("flow_id = ? AND id IN ?", flowID, ids).Find(&screens).Error
	return screens, err
}

func (r *ScreenRepository) NextOrderIndex(flowID uuid.UUID) (int, error) {
	return nextOrderIndex(r.db, &models.Screen{}, "flow_id", flowID)
}

func (r *ScreenRepository) Update(screen *models.Screen) error {
	return r.db.Save(screen).Error
}

func (r *ScreenRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.Screen{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Reorder sets the order of the given screens within a flow.
func (r *ScreenRepository) Reorder(flowID uuid.UUID, ids []uuid.UUID) error {
	return reorder(r.db, &models.Screen{}, "flow_id", flowID, ids)
}
