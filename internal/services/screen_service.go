package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"userflow-service/internal/auth"
	"userflow-service/internal/extraction"
	"userflow-service/internal/imaging"
	"userflow-service/internal/metrics"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/validation"
)

// ScreenInput is the payload for creating a screen.
type ScreenInput struct {
	Title         string     `json:"title"`
	DisplayName   string     `json:"display_name"`
	Notes         string     `json:"notes"`
	ScreenshotURL string     `json:"screenshot_url"`
	ParentID      *uuid.UUID `json:"parent_id"`
	Tags          []string   `json:"tags"`
}

// ScreenPatch carries the fields present in an update.
type ScreenPatch struct {
	Title         *string   `json:"title"`
	DisplayName   *string   `json:"display_name"`
	Notes         *string   `json:"notes"`
	ScreenshotURL *string   `json:"screenshot_url"`
	Tags          *[]string `json:"tags"`
}

// ScreenshotUpload is an image submitted for a screen.
type ScreenshotUpload struct {
	ContentType string
	Size        int64
	Data        io.Reader
}

// ImportResult lists the screens created from an archive.
type ImportResult struct {
	Screens []models.Screen        `json:"screens"`
	Skipped []string               `json:"skipped"`
	Metrics *metrics.ImportMetrics `json:"metrics"`
}

// ScreenServiceConfig wires the optional collaborators of ScreenService.
type ScreenServiceConfig struct {
	Store          BlobStore
	Encoding       imaging.Options
	UploadMaxBytes int64
	ImportLimits   extraction.Limits
	Recorder       Recorder
}

type ScreenService struct {
	repos  *repository.Repositories
	access access
	cfg    ScreenServiceConfig
}

func NewScreenService(repos *repository.Repositories, cfg ScreenServiceConfig) *ScreenService {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	return &ScreenService{repos: repos, access: access{repos: repos}, cfg: cfg}
}

func (s *ScreenService) ListByFlow(id auth.Identity, flowID uuid.UUID) ([]models.Screen, error) {
	if _, _, err := s.access.flow(id, flowID); err != nil {
		return nil, err
	}
	screens, err := s.repos.Screens.ListByFlow(flowID)
	if err != nil {
		return nil, errors.Wrap(err, "list screens")
	}
	return screens, nil
}

// Create appends a screen to the flow. A child screen sits one level below
// its parent and its path extends the parent's.
func (s *ScreenService) Create(id auth.Identity, flowID uuid.UUID, in ScreenInput) (*models.Screen, error) {
	if _, _, err := s.access.flow(id, flowID); err != nil {
		return nil, err
	}
	if err := validation.NonEmpty(in.Title, "title"); err != nil {
		return nil, err
	}

	screen := &models.Screen{
		FlowID:        flowID,
		Title:         strings.TrimSpace(in.Title),
		DisplayName:   strings.TrimSpace(in.DisplayName),
		Notes:         in.Notes,
		ScreenshotURL: in.ScreenshotURL,
		Tags:          datatypes.JSONSlice[string](in.Tags),
	}
	if screen.DisplayName == "" {
		screen.DisplayName = screen.Title
	}
	if in.ParentID != nil {
		const msg = "must reference a screen in this flow"
		parent, err := s.repos.Screens.Get(*in.ParentID)
		if err != nil {
			return nil, referenceErr(err, "parent screen", "parent_id", msg)
		}
		if parent.FlowID != flowID {
			return nil, invalid("parent_id", msg)
		}
		screen.ParentID = &parent.ID
		screen.Level = parent.Level + 1
		screen.Path = parent.Path + "/" + parent.ID.String()
	}

	next, err := s.repos.Screens.NextOrderIndex(flowID)
	if err != nil {
		return nil, errors.Wrap(err, "next screen position")
	}
	screen.OrderIndex = next
	if err := s.repos.Screens.Create(screen); err != nil {
		return nil, errors.Wrap(err, "create screen")
	}
	return screen, nil
}

func (s *ScreenService) Get(id auth.Identity, screenID uuid.UUID) (*models.Screen, error) {
	screen, _, err := s.access.screen(id, screenID)
	return screen, err
}

func (s *ScreenService) Update(id auth.Identity, screenID uuid.UUID, patch ScreenPatch) (*models.Screen, error) {
	screen, _, err := s.access.screen(id, screenID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := validation.NonEmpty(*patch.Title, "title"); err != nil {
			return nil, err
		}
		screen.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.DisplayName != nil {
		screen.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Notes != nil {
		screen.Notes = *patch.Notes
	}
	if patch.ScreenshotURL != nil {
		screen.ScreenshotURL = *patch.ScreenshotURL
		screen.ScreenshotKey = ""
	}
	if patch.Tags != nil {
		screen.Tags = datatypes.JSONSlice[string](*patch.Tags)
		if screen.Tags == nil {
			screen.Tags = datatypes.JSONSlice[string]{}
		}
	}
	if err := s.repos.Screens.Update(screen); err != nil {
		return nil, errors.Wrap(err, "update screen")
	}
	return screen, nil
}

func (s *ScreenService) Delete(id auth.Identity, screenID uuid.UUID) error {
	if _, _, err := s.access.screen(id, screenID); err != nil {
		return err
	}
	if err := s.repos.Screens.Delete(screenID); err != nil {
		return errors.Wrap(err, "delete screen")
	}
	return nil
}

// Reorder sets the screen order of a flow. ids must all belong to it.
func (s *ScreenService) Reorder(id auth.Identity, flowID uuid.UUID, ids []uuid.UUID) ([]models.Screen, error) {
	if _, _, err := s.access.flow(id, flowID); err != nil {
		return nil, err
	}
	if err := checkOrderIDs(ids); err != nil {
		return nil, err
	}
	if err := s.repos.Screens.Reorder(flowID, ids); err != nil {
		if errors.Is(err, repository.ErrOrderMismatch) {
			return nil, invalid("ids", "must only reference screens of this flow")
		}
		return nil, errors.Wrap(err, "reorder screens")
	}
	screens, err := s.repos.Screens.ListByFlow(flowID)
	if err != nil {
		return nil, errors.Wrap(err, "list screens")
	}
	return screens, nil
}

// UploadScreenshot re-encodes the image under the size ceiling, stores it and
// points the screen at it. The previous stored object is removed.
func (s *ScreenService) UploadScreenshot(ctx context.Context, id auth.Identity, screenID uuid.UUID, upload ScreenshotUpload) (*models.Screen, error) {
	screen, _, err := s.access.screen(id, screenID)
	if err != nil {
		return nil, err
	}
	if s.cfg.Store == nil {
		return nil, &NotConfiguredError{Service: "object storage"}
	}
	if err := validation.ValidateImageUpload(upload.ContentType, upload.Size, s.cfg.UploadMaxBytes); err != nil {
		return nil, err
	}

	res, err := s.encode(ctx, upload.Data)
	if err != nil {
		return nil, err
	}
	key := screenshotKey(screen.ID)
	url, err := s.cfg.Store.Put(ctx, key, imaging.ContentType, res.Data)
	if err != nil {
		return nil, errors.Wrap(err, "store screenshot")
	}

	previous := screen.ScreenshotKey
	screen.ScreenshotURL = url
	screen.ScreenshotKey = key
	if err := s.repos.Screens.Update(screen); err != nil {
		return nil, errors.Wrap(err, "update screen")
	}
	if previous != "" && previous != key {
		if err := s.cfg.Store.Remove(ctx, previous); err != nil {
			log.Warn().Err(err).Str("key", previous).Msg("failed to remove replaced screenshot")
		}
	}
	return screen, nil
}

// ImportArchive creates one screen per image in the archive, appended to the
// flow in file name order. Files that are not decodable images are skipped.
func (s *ScreenService) ImportArchive(ctx context.Context, id auth.Identity, flowID uuid.UUID, archivePath string) (*ImportResult, error) {
	if _, _, err := s.access.flow(id, flowID); err != nil {
		return nil, err
	}
	if s.cfg.Store == nil {
		return nil, &NotConfiguredError{Service: "object storage"}
	}

	images, err := extraction.ExtractImages(ctx, archivePath, s.cfg.ImportLimits)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, extraction.ErrNoImages) {
			return nil, invalid("file", "archive contains no images")
		}
		return nil, invalid("file", "could not read archive: "+err.Error())
	}

	next, err := s.repos.Screens.NextOrderIndex(flowID)
	if err != nil {
		return nil, errors.Wrap(err, "next screen position")
	}

	im := metrics.NewImportMetrics()
	result := &ImportResult{Skipped: []string{}, Metrics: im}
	var created []*models.Screen
	for _, img := range images {
		res, err := s.encode(ctx, bytes.NewReader(img.Data))
		if err != nil {
			var verr *validation.Error
			if errors.As(err, &verr) {
				result.Skipped = append(result.Skipped, img.Path)
				continue
			}
			return nil, err
		}

		screen := &models.Screen{
			ID:          uuid.New(),
			FlowID:      flowID,
			Title:       img.Name(),
			DisplayName: img.Name(),
			OrderIndex:  next + len(created),
		}
		key := screenshotKey(screen.ID)
		url, err := s.cfg.Store.Put(ctx, key, imaging.ContentType, res.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "store %s", img.Path)
		}
		screen.ScreenshotURL = url
		screen.ScreenshotKey = key
		created = append(created, screen)
		im.AddFile(int64(len(img.Data)), res.Size(), res.FloorReached)
	}

	if err := s.repos.Screens.CreateBatch(created); err != nil {
		return nil, errors.Wrap(err, "create imported screens")
	}
	im.Finalize(len(created))
	log.Info().Str("flow_id", flowID.String()).Msg(im.GetSummary())

	result.Screens = make([]models.Screen, 0, len(created))
	for _, sc := range created {
		result.Screens = append(result.Screens, *sc)
	}
	return result, nil
}

func (s *ScreenService) encode(ctx context.Context, r io.Reader) (*imaging.Result, error) {
	res, err := imaging.EncodeReader(ctx, r, s.cfg.Encoding)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			return nil, invalid("file", "could not be decoded as an image")
		}
		if errors.Is(err, imaging.ErrTooManyPixels) {
			return nil, invalid("file", "image dimensions are too large")
		}
		return nil, err
	}
	s.cfg.Recorder.ObserveEncode(res.Attempts, res.Size(), res.FloorReached)
	if res.FloorReached {
		log.Warn().Int64("bytes", res.Size()).Int("width", res.Width).Int("height", res.Height).
			Msg("screenshot exceeds size ceiling at minimum dimensions")
	}
	return res, nil
}

func screenshotKey(screenID uuid.UUID) string {
	return fmt.Sprintf("screens/%s/%s.jpg", screenID, uuid.NewString())
}
