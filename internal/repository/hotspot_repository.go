package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// HotspotRepository persists screen hotspots.
type HotspotRepository struct {
	db *gorm.DB
}

func NewHotspotRepository(db *gorm.DB) *HotspotRepository {
	return &HotspotRepository{db: db}
}

func (r *HotspotRepository) Create(hotspot *models.ScreenHotspot) error {
	return r.db.Create(hotspot).Error
}

// CreateBatch inserts hotspots in one transaction.
func (r *HotspotRepository) CreateBatch(hotspots []*models.ScreenHotspot) error {
	if len(hotspots) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, h := range hotspots {
			if err := tx.Create(h).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *HotspotRepository) Get(id uuid.UUID) (*models.ScreenHotspot, error) {
	var hotspot models.ScreenHotspot
	if err := r.db.First(&hotspot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &hotspot, nil
}

func (r *HotspotRepository) ListByScreen(screenID uuid.UUID) ([]models.ScreenHotspot, error) {
	hotspots := []models.ScreenHotspot{}
	err := r.db.Scopes(byOrder).Where("screen_id = ?", screenID).Find(&hotspots).Error
	return hotspots, err
}

func (r *HotspotRepository) NextOrderIndex(screenID uuid.UUID) (int, error) {
	return nextOrderIndex(r.db, &models.ScreenHotspot{}, "screen_id", screenID)
}

func (r *HotspotRepository) Update(hotspot *models.ScreenHotspot) error {
	return r.db.Save(hotspot).Error
}

func (r *HotspotRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.ScreenHotspot{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
