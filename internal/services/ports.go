package services

import (
	"context"

	"userflow-service/internal/services/cache"
	"userflow-service/internal/vision"
)

// BlobStore keeps encoded screenshots.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// VisionClient describes screenshots and finds their interactive elements.
type VisionClient interface {
	Analyze(ctx context.Context, imageURL string, siblings []vision.ContextScreen) (*vision.Analysis, error)
	DetectElements(ctx context.Context, imageURL string) (*vision.Detection, error)
}

// ResultCache stores serialized results by key.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
	Store(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context) error
	Stats() []cache.LayerStats
}

// DocumentCompiler turns a Typst source with its assets into a PDF.
type DocumentCompiler interface {
	Available() bool
	Compile(ctx context.Context, source []byte, assets map[string][]byte) ([]byte, error)
}

// SignatureVerifier checks signed webhook payloads.
type SignatureVerifier interface {
	Verify(payload []byte, id, timestamp, signature string) error
}

// Recorder receives domain measurements.
type Recorder interface {
	ObserveAnalysisCache(hit bool)
	ObserveEncode(attempts int, size int64, floorReached bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysisCache(bool) {}
func (nopRecorder) ObserveEncode(int, int64, bool) {}
