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

// FlowInput is the payload for creating a flow.
type FlowInput struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	ParentScreenID *uuid.UUID `json:"parent_screen_id"`
	ParentFlowID   *uuid.UUID `json:"parent_flow_id"`
}

// FlowPatch carries the fields present in an update.
type FlowPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type FlowService struct {
	repos  *repository.Repositories
	access access
}

func NewFlowService(repos *repository.Repositories) *FlowService {
	return &FlowService{repos: repos, access: access{repos: repos}}
}

func (s *FlowService) ListByProject(id auth.Identity, projectID uuid.UUID) ([]models.Flow, error) {
	if _, err := s.access.project(id, projectID); err != nil {
		return nil, err
	}
	flows, err := s.repos.Flows.ListByProject(projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list flows")
	}
	return flows, nil
}

// Create appends a flow to the end of the project. A parent screen or
// parent flow, when given, must belong to the same project.
func (s *FlowService) Create(id auth.Identity, projectID uuid.UUID, in FlowInput) (*models.Flow, error) {
	if _, err := s.access.project(id, projectID); err != nil {
		return nil, err
	}
	if err := validation.NonEmpty(in.Name, "name"); err != nil {
		return nil, err
	}
	if in.ParentFlowID != nil {
		const msg = "must reference a flow in this project"
		parent, err := s.repos.Flows.Get(*in.ParentFlowID)
		if err != nil {
			return nil, referenceErr(err, "parent flow", "parent_flow_id", msg)
		}
		if parent.ProjectID != projectID {
			return nil, invalid("parent_flow_id", msg)
		}
	}
	if in.ParentScreenID != nil {
		const msg = "must reference a screen in this project"
		owner, err := s.access.projectOfScreen(*in.ParentScreenID)
		if err != nil {
			return nil, referenceErr(err, "parent screen", "parent_screen_id", msg)
		}
		if owner != projectID {
			return nil, invalid("parent_screen_id", msg)
		}
	}

	next, err := s.repos.Flows.NextOrderIndex(projectID)
	if err != nil {
		return nil, errors.Wrap(err, "next flow position")
	}
	flow := &models.Flow{
		ProjectID:      projectID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		OrderIndex:     next,
		ParentScreenID: in.ParentScreenID,
		ParentFlowID:   in.ParentFlowID,
	}
	if err := s.repos.Flows.Create(flow); err != nil {
		return nil, errors.Wrap(err, "create flow")
	}
	return flow, nil
}

func (s *FlowService) Get(id auth.Identity, flowID uuid.UUID) (*models.Flow, error) {
	flow, _, err := s.access.flow(id, flowID)
	return flow, err
}

func (s *FlowService) Update(id auth.Identity, flowID uuid.UUID, patch FlowPatch) (*models.Flow, error) {
	flow, _, err := s.access.flow(id, flowID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := validation.NonEmpty(*patch.Name, "name"); err != nil {
			return nil, err
		}
		flow.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		flow.Description = *patch.Description
	}
	if err := s.repos.Flows.Update(flow); err != nil {
		return nil, errors.Wrap(err, "update flow")
	}
	return flow, nil
}

func (s *FlowService) Delete(id auth.Identity, flowID uuid.UUID) error {
	if _, _, err := s.access.flow(id, flowID); err != nil {
		return err
	}
	if err := s.repos.Flows.Delete(flowID); err != nil {
		return errors.Wrap(err, "delete flow")
	}
	return nil
}

// Reorder sets the flow order of a project. ids must all belong to it.
func (s *FlowService) Reorder(id auth.Identity, projectID uuid.UUID, ids []uuid.UUID) ([]models.Flow, error) {
	if _, err := s.access.project(id, projectID); err != nil {
		return nil, err
	}
	if err := checkOrderIDs(ids); err != nil {
		return nil, err
	}
	if err := s.repos.Flows.Reorder(projectID, ids); err != nil {
		if errors.Is(err, repository.ErrOrderMismatch) {
			return nil, invalid("ids", "must only reference flows of this project")
		}
		return nil, errors.Wrap(err, "reorder flows")
	}
	return s.repos.Flows.ListByProject(projectID)
}

func checkOrderIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return invalid("ids", "is required")
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("ids", "must not contain duplicates")
		}
		seen[id] = true
	}
	return nil
}
