package services

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/validation"
)

// HotspotInput is the payload for a new hotspot. The four box fields are
// required.
type HotspotInput struct {
	XPosition          *float64   `json:"x_position"`
	YPosition          *float64   `json:"y_position"`
	Width              *float64   `json:"width"`
	Height             *float64   `json:"height"`
	ElementType        string     `json:"element_type"`
	ElementLabel       string     `json:"element_label"`
	ElementDescription string     `json:"element_description"`
	TargetScreenID     *uuid.UUID `json:"target_screen_id"`
	InteractionType    string     `json:"interaction_type"`
	ConfidenceScore    *float64   `json:"confidence_score"`
	IsAIGenerated      bool       `json:"is_ai_generated"`
}

// HotspotPatch carries the fields present in an update.
type HotspotPatch struct {
	XPosition          *float64   `json:"x_position"`
	YPosition          *float64   `json:"y_position"`
	Width              *float64   `json:"width"`
	Height             *float64   `json:"height"`
	ElementType        *string    `json:"element_type"`
	ElementLabel       *string    `json:"element_label"`
	ElementDescription *string    `json:"element_description"`
	TargetScreenID     *uuid.UUID `json:"target_screen_id"`
	InteractionType    *string    `json:"interaction_type"`
	OrderIndex         *int       `json:"order_index"`
}

type HotspotService struct {
	repos  *repository.Repositories
	access access
}

func NewHotspotService(repos *repository.Repositories) *HotspotService {
	return &HotspotService{repos: repos, access: access{repos: repos}}
}

func (s *HotspotService) List(id auth.Identity, screenID uuid.UUID) ([]models.ScreenHotspot, error) {
	if _, _, err := s.access.screen(id, screenID); err != nil {
		return nil, err
	}
	hotspots, err := s.repos.Hotspots.ListByScreen(screenID)
	if err != nil {
		return nil, errors.Wrap(err, "list hotspots")
	}
	return hotspots, nil
}

func (s *HotspotService) Create(id auth.Identity, screenID uuid.UUID, in HotspotInput) (*models.ScreenHotspot, error) {
	_, flow, err := s.access.screen(id, screenID)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"x_position", in.XPosition},
		{"y_position", in.YPosition},
		{"width", in.Width},
		{"height", in.Height},
	} {
		if f.value == nil {
			return nil, invalid(f.name, "is required")
		}
	}
	box := validation.BoundingBox{X: *in.XPosition, Y: *in.YPosition, Width: *in.Width, Height: *in.Height}
	if err := validation.ValidateBoundingBox(box); err != nil {
		return nil, err
	}
	if err := validateConfidence(in.ConfidenceScore); err != nil {
		return nil, err
	}
	if err := s.checkTarget(in.TargetScreenID, flow.ProjectID); err != nil {
		return nil, err
	}

	next, err := s.repos.Hotspots.NextOrderIndex(screenID)
	if err != nil {
		return nil, errors.Wrap(err, "next hotspot position")
	}
	hotspot := &models.ScreenHotspot{
		ScreenID:           screenID,
		XPosition:          box.X,
		YPosition:          box.Y,
		Width:              box.Width,
		Height:             box.Height,
		ElementType:        in.ElementType,
		ElementLabel:       in.ElementLabel,
		ElementDescription: in.ElementDescription,
		TargetScreenID:     in.TargetScreenID,
		InteractionType:    in.InteractionType,
		ConfidenceScore:    in.ConfidenceScore,
		IsAIGenerated:      in.IsAIGenerated,
		OrderIndex:         next,
	}
	if err := s.repos.Hotspots.Create(hotspot); err != nil {
		return nil, errors.Wrap(err, "create hotspot")
	}
	return hotspot, nil
}

func (s *HotspotService) Update(id auth.Identity, hotspotID uuid.UUID, patch HotspotPatch) (*models.ScreenHotspot, error) {
	hotspot, projectID, err := s.load(id, hotspotID)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateBoundingBoxPatch(validation.BoundingBoxPatch{
		X: patch.XPosition, Y: patch.YPosition, Width: patch.Width, Height: patch.Height,
	})
	if err != nil {
		return nil, err
	}
	if err := s.checkTarget(patch.TargetScreenID, projectID); err != nil {
		return nil, err
	}

	setFloat(&hotspot.XPosition, patch.XPosition)
	setFloat(&hotspot.YPosition, patch.YPosition)
	setFloat(&hotspot.Width, patch.Width)
	setFloat(&hotspot.Height, patch.Height)
	setString(&hotspot.ElementType, patch.ElementType)
	setString(&hotspot.ElementLabel, patch.ElementLabel)
	setString(&hotspot.ElementDescription, patch.ElementDescription)
	if patch.TargetScreenID != nil {
		hotspot.TargetScreenID = patch.TargetScreenID
	}
	if patch.InteractionType != nil && *patch.InteractionType != "" {
		hotspot.InteractionType = *patch.InteractionType
	}
	if patch.OrderIndex != nil {
		hotspot.OrderIndex = *patch.OrderIndex
	}
	if err := s.repos.Hotspots.Update(hotspot); err != nil {
		return nil, errors.Wrap(err, "update hotspot")
	}
	return hotspot, nil
}

func (s *HotspotService) Delete(id auth.Identity, hotspotID uuid.UUID) error {
	if _, _, err := s.load(id, hotspotID); err != nil {
		return err
	}
	if err := s.repos.Hotspots.Delete(hotspotID); err != nil {
		return errors.Wrap(err, "delete hotspot")
	}
	return nil
}

func (s *HotspotService) load(id auth.Identity, hotspotID uuid.UUID) (*models.ScreenHotspot, uuid.UUID, error) {
	if id.Empty() {
		return nil, uuid.Nil, ErrUnauthorized
	}
	hotspot, err := s.repos.Hotspots.Get(hotspotID)
	if err != nil {
		return nil, uuid.Nil, lookupErr("hotspot", err)
	}
	_, flow, err := s.access.screen(id, hotspot.ScreenID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return hotspot, flow.ProjectID, nil
}

// checkTarget requires a navigation target to be a screen of the same project.
func (s *HotspotService) checkTarget(target *uuid.UUID, projectID uuid.UUID) error {
	if target == nil {
		return nil
	}
	const msg = "must reference a screen in this project"
	owner, err := s.access.projectOfScreen(*target)
	if err != nil {
		return referenceErr(err, "target screen", "target_screen_id", msg)
	}
	if owner != projectID {
		return invalid("target_screen_id", msg)
	}
	return nil
}

func validateConfidence(v *float64) error {
	if v != nil && !(*v >= 0 && *v <= 1) {
		return invalid("confidence_score", "must be between 0 and 1")
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
