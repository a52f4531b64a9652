package services

import (
	"github.com/google/uuid"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
)

// access resolves a resource and checks that the identity owns the project
// it belongs to. Missing resources win over ownership: 404 before 403.
type access struct {
	repos *repository.Repositories
}

func (a access) project(id auth.Identity, projectID uuid.UUID) (*models.Project, error) {
	if id.Empty() {
		return nil, ErrUnauthorized
	}
	project, err := a.repos.Projects.Get(projectID)
	if err != nil {
		return nil, lookupErr("project", err)
	}
	if !id.CanAccess(project) {
		return nil, ErrForbidden
	}
	return project, nil
}

func (a access) flow(id auth.Identity, flowID uuid.UUID) (*models.Flow, *models.Project, error) {
	if id.Empty() {
		return nil, nil, ErrUnauthorized
	}
	flow, err := a.repos.Flows.Get(flowID)
	if err != nil {
		return nil, nil, lookupErr("flow", err)
	}
	project, err := a.project(id, flow.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return flow, project, nil
}

// projectOfScreen returns the project a screen belongs to, without checking
// ownership.
func (a access) projectOfScreen(screenID uuid.UUID) (uuid.UUID, error) {
	screen, err := a.repos.Screens.Get(screenID)
	if err != nil {
		return uuid.Nil, err
	}
	flow, err := a.repos.Flows.Get(screen.FlowID)
	if err != nil {
		return uuid.Nil, err
	}
	return flow.ProjectID, nil
}

func (a access) screen(id auth.Identity, screenID uuid.UUID) (*models.Screen, *models.Flow, error) {
	if id.Empty() {
		return nil, nil, ErrUnauthorized
	}
	screen, err := a.repos.Screens.Get(screenID)
	if err != nil {
		return nil, nil, lookupErr("screen", err)
	}
	flow, _, err := a.flow(id, screen.FlowID)
	if err != nil {
		return nil, nil, err
	}
	return screen, flow, nil
}
