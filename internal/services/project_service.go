package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/validation"
)

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	AvatarURL   string `json:"avatar_url"`
}

// ProjectPatch carries the fields present in an update.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	AvatarURL   *string `json:"avatar_url"`
}

// ShareInfo describes the public link of a project.
type ShareInfo struct {
	ShareToken string `json:"shareToken"`
	ShareURL   string `json:"shareUrl"`
	IsPublic   bool   `json:"isPublic"`
}

type ProjectService struct {
	repos  *repository.Repositories
	access access
}

func NewProjectService(repos *repository.Repositories) *ProjectService {
	return &ProjectService{repos: repos, access: access{repos: repos}}
}

// List returns the projects of the caller's active organization, or their
// personal projects when no organization is active.
func (s *ProjectService) List(id auth.Identity) ([]models.Project, error) {
	if id.Empty() {
		return nil, ErrUnauthorized
	}
	projects, err := s.repos.Projects.List(auth.AccessScope(id))
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	return projects, nil
}

func (s *ProjectService) Create(id auth.Identity, in ProjectInput) (*models.Project, error) {
	if id.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validation.NonEmpty(in.Name, "name"); err != nil {
		return nil, err
	}
	if in.Color != "" {
		if err := validation.ValidateColor(in.Color, "color"); err != nil {
			return nil, err
		}
	}
	project := &models.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		AvatarURL:   in.AvatarURL,
		UserID:      id.UserID,
		ClerkOrgID:  id.OrgID,
	}
	if err := s.repos.Projects.Create(project); err != nil {
		return nil, errors.Wrap(err, "create project")
	}
	return project, nil
}

func (s *ProjectService) Get(id auth.Identity, projectID uuid.UUID) (*models.Project, error) {
	return s.access.project(id, projectID)
}

func (s *ProjectService) Update(id auth.Identity, projectID uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	project, err := s.access.project(id, projectID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := validation.NonEmpty(*patch.Name, "name"); err != nil {
			return nil, err
		}
		project.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	if patch.Color != nil {
		if err := validation.ValidateColor(*patch.Color, "color"); err != nil {
			return nil, err
		}
		project.Color = *patch.Color
	}
	if patch.AvatarURL != nil {
		project.AvatarURL = *patch.AvatarURL
	}
	if err := s.repos.Projects.Update(project); err != nil {
		return nil, errors.Wrap(err, "update project")
	}
	return project, nil
}

// Delete soft-deletes the project with its flows and screens.
func (s *ProjectService) Delete(id auth.Identity, projectID uuid.UUID) error {
	if _, err := s.access.project(id, projectID); err != nil {
		return err
	}
	if err := s.repos.Projects.Delete(projectID); err != nil {
		return errors.Wrap(err, "delete project")
	}
	return nil
}

// EnableSharing makes the project public, keeping an existing token.
func (s *ProjectService) EnableSharing(id auth.Identity, projectID uuid.UUID, baseURL string) (*ShareInfo, error) {
	project, err := s.access.project(id, projectID)
	if err != nil {
		return nil, err
	}
	if project.ShareToken == nil || *project.ShareToken == "" {
		token := newShareToken()
		project.ShareToken = &token
	}
	project.IsPublic = true
	if err := s.repos.Projects.Update(project); err != nil {
		return nil, errors.Wrap(err, "enable sharing")
	}
	return shareInfo(project, baseURL), nil
}

// DisableSharing hides the project. The token is kept so re-enabling
// restores the same link.
func (s *ProjectService) DisableSharing(id auth.Identity, projectID uuid.UUID, baseURL string) (*ShareInfo, error) {
	project, err := s.access.project(id, projectID)
	if err != nil {
		return nil, err
	}
	project.IsPublic = false
	if err := s.repos.Projects.Update(project); err != nil {
		return nil, errors.Wrap(err, "disable sharing")
	}
	return shareInfo(project, baseURL), nil
}

// GetShared returns a public project with its flows and screens. No identity
// is needed.
func (s *ProjectService) GetShared(token string) (*models.Project, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &NotFoundError{Resource: "shared project"}
	}
	project, err := s.repos.Projects.GetPublicByShareToken(token)
	if err != nil {
		return nil, lookupErr("shared project", err)
	}
	return project, nil
}

func newShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func shareInfo(p *models.Project, baseURL string) *ShareInfo {
	info := &ShareInfo{IsPublic: p.IsPublic}
	if p.ShareToken != nil {
		info.ShareToken = *p.ShareToken
		info.ShareURL = strings.TrimRight(baseURL, "/") + "/share/" + info.ShareToken
	}
	return info
}
