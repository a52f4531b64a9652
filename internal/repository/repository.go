package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOrderMismatch is returned by reorder operations when an id does not
// belong to the parent being reordered.
var ErrOrderMismatch = errors.New("ordering references an unknown item")

// IsNotFound reports whether err means the row does not exist or was deleted.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func byOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC").Order("created_at ASC")
}

// nextOrderIndex returns one past the highest order_index under the parent.
func nextOrderIndex(db *gorm.DB, model interface{}, parentColumn string, parentID uuid.UUID) (int, error) {
	var max int
	err := db.Model(model).
		Where(parentColumn+" = ?", parentID).
		Select("COALESCE(MAX(order_index), -1)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// reorder assigns order_index by position in ids, inside one transaction.
func reorder(db *gorm.DB, model interface{}, parentColumn string, parentID uuid.UUID, ids []uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(model).
				Where("id = ? AND "+parentColumn+" = ?", id, parentID).
				Update("order_index", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOrderMismatch
			}
		}
		return nil
	})
}

// Repositories groups the per-entity repositories over one connection.
type Repositories struct {
	Projects *ProjectRepository
	Flows    *FlowRepository
	Screens  *ScreenRepository
	Comments *CommentRepository
	Hotspots *HotspotRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Projects: NewProjectRepository(db),
		Flows:    NewFlowRepository(db),
		Screens:  NewScreenRepository(db),
		Comments: NewCommentRepository(db),
		Hotspots: NewHotspotRepository(db),
	}
}
