package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/validation"
)

const anonymousAuthor = "Anonymous"

// CommentInput is the payload for a new comment.
type CommentInput struct {
	XPosition       float64    `json:"x_position"`
	YPosition       float64    `json:"y_position"`
	CommentText     string     `json:"comment_text"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
}

// CommentPatch edits the text or the resolution state.
type CommentPatch struct {
	CommentText *string `json:"comment_text"`
	IsResolved  *bool   `json:"is_resolved"`
}

type CommentService struct {
	repos     *repository.Repositories
	access    access
	directory auth.UserDirectory
	now       func() time.Time
}

// NewCommentService builds the service. directory may be nil, in which case
// authors are stored as "Anonymous".
func NewCommentService(repos *repository.Repositories, directory auth.UserDirectory) *CommentService {
	return &CommentService{
		repos:     repos,
		access:    access{repos: repos},
		directory: directory,
		now:       time.Now,
	}
}

// List returns the screen's comments, oldest first.
func (s *CommentService) List(id auth.Identity, screenID uuid.UUID) ([]models.ScreenComment, error) {
	if _, _, err := s.access.screen(id, screenID); err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.ListByScreen(screenID)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, id auth.Identity, screenID uuid.UUID, in CommentInput) (*models.ScreenComment, error) {
	if _, _, err := s.access.screen(id, screenID); err != nil {
		return nil, err
	}
	if id.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validation.NonEmpty(in.CommentText, "comment_text"); err != nil {
		return nil, err
	}
	if err := validation.ValidatePoint(in.XPosition, in.YPosition); err != nil {
		return nil, err
	}
	if in.ParentCommentID != nil {
		const msg = "must reference a comment on this screen"
		parent, err := s.repos.Comments.Get(*in.ParentCommentID)
		if err != nil {
			return nil, referenceErr(err, "parent comment", "parent_comment_id", msg)
		}
		if parent.ScreenID != screenID {
			return nil, invalid("parent_comment_id", msg)
		}
	}

	profile := s.author(ctx, id.UserID)
	comment := &models.ScreenComment{
		ScreenID:        screenID,
		UserID:          id.UserID,
		UserName:        profile.Name,
		UserAvatar:      profile.AvatarURL,
		XPosition:       in.XPosition,
		YPosition:       in.YPosition,
		CommentText:     strings.TrimSpace(in.CommentText),
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.repos.Comments.Create(comment); err != nil {
		return nil, errors.Wrap(err, "create comment")
	}
	return comment, nil
}

// Update lets the author edit the text or resolve the comment. Resolving
// stamps who and when; reopening clears both.
func (s *CommentService) Update(id auth.Identity, commentID uuid.UUID, patch CommentPatch) (*models.ScreenComment, error) {
	comment, err := s.owned(id, commentID)
	if err != nil {
		return nil, err
	}
	if patch.CommentText != nil {
		if err := validation.NonEmpty(*patch.CommentText, "comment_text"); err != nil {
			return nil, err
		}
		comment.CommentText = strings.TrimSpace(*patch.CommentText)
	}
	if patch.IsResolved != nil && *patch.IsResolved != comment.IsResolved {
		comment.IsResolved = *patch.IsResolved
		if comment.IsResolved {
			now := s.now()
			by := id.UserID
			comment.ResolvedAt = &now
			comment.ResolvedBy = &by
		} else {
			comment.ResolvedAt = nil
			comment.ResolvedBy = nil
		}
	}
	if err := s.repos.Comments.Update(comment); err != nil {
		return nil, errors.Wrap(err, "update comment")
	}
	return comment, nil
}

func (s *CommentService) Delete(id auth.Identity, commentID uuid.UUID) error {
	if _, err := s.owned(id, commentID); err != nil {
		return err
	}
	if err := s.repos.Comments.Delete(commentID); err != nil {
		return errors.Wrap(err, "delete comment")
	}
	return nil
}

// owned loads a comment the identity can see and wrote.
func (s *CommentService) owned(id auth.Identity, commentID uuid.UUID) (*models.ScreenComment, error) {
	if id.Empty() {
		return nil, ErrUnauthorized
	}
	comment, err := s.repos.Comments.Get(commentID)
	if err != nil {
		return nil, lookupErr("comment", err)
	}
	if _, _, err := s.access.screen(id, comment.ScreenID); err != nil {
		return nil, err
	}
	if comment.UserID != id.UserID {
		return nil, ErrForbidden
	}
	return comment, nil
}

func (s *CommentService) author(ctx context.Context, userID string) auth.UserProfile {
	if s.directory == nil {
		return auth.UserProfile{Name: anonymousAuthor}
	}
	profile, err := s.directory.LookupUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("author lookup failed")
		return auth.UserProfile{Name: anonymousAuthor}
	}
	if profile.Name == "" {
		profile.Name = anonymousAuthor
	}
	return profile
}
