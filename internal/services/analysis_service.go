package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/services/cache"
	"userflow-service/internal/vision"
)

// analysisKeySpace namespaces cache keys derived from analysis requests.
var analysisKeySpace = uuid.MustParse("6f0c6c1e-3f7a-4f59-9a47-0d8a3c1b7e21")

// AnalyzeRequest asks for a title and description of a screenshot.
type AnalyzeRequest struct {
	ImageURL string                 `json:"imageUrl"`
	Context  []vision.ContextScreen `json:"context"`
}

// DetectionResult is the response of element detection.
type DetectionResult struct {
	Elements []vision.Element       `json:"elements"`
	Count    int                    `json:"count"`
	RawCount int                    `json:"raw_count"`
	Usage    vision.Usage           `json:"usage"`
	Hotspots []models.ScreenHotspot `json:"hotspots,omitempty"`
}

type AnalysisService struct {
	repos    *repository.Repositories
	access   access
	vision   VisionClient
	cache    ResultCache
	recorder Recorder
}

// NewAnalysisService builds the service. client and cache may be nil.
func NewAnalysisService(repos *repository.Repositories, client VisionClient, results ResultCache, recorder Recorder) *AnalysisService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AnalysisService{
		repos:    repos,
		access:   access{repos: repos},
		vision:   client,
		cache:    results,
		recorder: recorder,
	}
}

// AnalyzeScreenshot names a screenshot. Results are cached by image URL and
// context so repeated requests do not reach the provider.
func (s *AnalysisService) AnalyzeScreenshot(ctx context.Context, id auth.Identity, req AnalyzeRequest) (*vision.Analysis, error) {
	if id.Empty() {
		return nil, ErrUnauthorized
	}
	if s.vision == nil {
		return nil, &NotConfiguredError{Service: "vision provider"}
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, invalid("imageUrl", "is required")
	}

	key := analysisKey(req)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	analysis, err := s.vision.Analyze(ctx, req.ImageURL, req.Context)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := json.Marshal(analysis); err == nil {
			if err := s.cache.Store(ctx, key, data); err != nil {
				log.Warn().Err(err).Msg("failed to cache screen analysis")
			}
		}
	}
	return analysis, nil
}

// DetectElements finds interactive elements on a screen's screenshot. When
// persist is set they are saved as AI-generated hotspots after the existing
// ones.
func (s *AnalysisService) DetectElements(ctx context.Context, id auth.Identity, screenID uuid.UUID, persist bool) (*DetectionResult, error) {
	screen, _, err := s.access.screen(id, screenID)
	if err != nil {
		return nil, err
	}
	if s.vision == nil {
		return nil, &NotConfiguredError{Service: "vision provider"}
	}
	if screen.ScreenshotURL == "" {
		return nil, invalid("screenshot_url", "screen has no screenshot")
	}

	detection, err := s.vision.DetectElements(ctx, screen.ScreenshotURL)
	if err != nil {
		return nil, err
	}
	result := &DetectionResult{
		Elements: detection.Elements,
		Count:    len(detection.Elements),
		RawCount: detection.RawCount,
		Usage:    detection.Usage,
	}
	if !persist || len(detection.Elements) == 0 {
		return result, nil
	}

	next, err := s.repos.Hotspots.NextOrderIndex(screenID)
	if err != nil {
		return nil, errors.Wrap(err, "next hotspot position")
	}
	hotspots := make([]*models.ScreenHotspot, 0, len(detection.Elements))
	for _, e := range detection.Elements {
		confidence := clampConfidence(e.Confidence)
		hotspots = append(hotspots, &models.ScreenHotspot{
			ScreenID:           screenID,
			XPosition:          e.BoundingBox.X,
			YPosition:          e.BoundingBox.Y,
			Width:              e.BoundingBox.Width,
			Height:             e.BoundingBox.Height,
			ElementType:        e.Type,
			ElementLabel:       e.Label,
			ElementDescription: e.Description,
			ConfidenceScore:    &confidence,
			IsAIGenerated:      true,
			OrderIndex:         next + e.OrderIndex,
		})
	}
	if err := s.repos.Hotspots.CreateBatch(hotspots); err != nil {
		return nil, errors.Wrap(err, "save detected hotspots")
	}
	for _, h := range hotspots {
		result.Hotspots = append(result.Hotspots, *h)
	}
	return result, nil
}

// CacheStats reports per-layer counters of the analysis cache.
func (s *AnalysisService) CacheStats(id auth.Identity) ([]cache.LayerStats, error) {
	if id.Empty() {
		return nil, ErrUnauthorized
	}
	if s.cache == nil {
		return []cache.LayerStats{}, nil
	}
	return s.cache.Stats(), nil
}

// ClearCache drops every cached analysis.
func (s *AnalysisService) ClearCache(ctx context.Context, id auth.Identity) error {
	if id.Empty() {
		return ErrUnauthorized
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear analysis cache")
	}
	log.Info().Str("user_id", id.UserID).Msg("analysis cache cleared")
	return nil
}

func (s *AnalysisService) cached(ctx context.Context, key string) *vision.Analysis {
	if s.cache == nil {
		return nil
	}
	data, layer, err := s.cache.Get(ctx, key)
	if err != nil {
		s.recorder.ObserveAnalysisCache(false)
		return nil
	}
	var analysis vision.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		s.recorder.ObserveAnalysisCache(false)
		return nil
	}
	s.recorder.ObserveAnalysisCache(true)
	log.Debug().Str("layer", layer).Msg("screen analysis served from cache")
	return &analysis
}

// clampConfidence keeps a model-reported score within [0, 1]; NaN becomes 0.
func clampConfidence(v float64) float64 {
	switch {
	case !(v >= 0):
		return 0
	case v > 1:
		return 1
	}
	return v
}

func analysisKey(req AnalyzeRequest) string {
	payload, _ := json.Marshal(req)
	return "analysis:" + uuid.NewSHA1(analysisKeySpace, payload).String()
}
