package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// CommentRepository persists screen comments.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(comment *models.ScreenComment) error {
	return r.db.Create(comment).Error
}

func (r *CommentRepository) Get(id uuid.UUID) (*models.ScreenComment, error) {
	var comment models.ScreenComment
	if err := r.db.First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByScreen returns comments oldest first.
func (r *CommentRepository) ListByScreen(screenID uuid.UUID) ([]models.ScreenComment, error) {
	comments := []models.ScreenComment{}
	err := r.db.Where("screen_id = ?", screenID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) Update(comment *models.ScreenComment) error {
	return r.db.Save(comment).Error
}

func (r *CommentRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.ScreenComment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
