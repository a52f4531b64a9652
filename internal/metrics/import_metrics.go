package metrics

import (
	"fmt"
	"time"
)

// ImportMetrics tracks one archive import.
type ImportMetrics struct {
	StartTime      time.Time `json:"-"`
	TotalLatencyMs float64   `json:"totalLatencyMs"`
	FileCount      int       `json:"fileCount"`
	CreatedCount   int       `json:"createdCount"`
	InputBytes     int64     `json:"inputBytes"`
	StoredBytes    int64     `json:"storedBytes"`
	FloorReached   int       `json:"floorReached"`
}

func NewImportMetrics() *ImportMetrics {
	return &ImportMetrics{StartTime: time.Now()}
}

// AddFile records one encoded and stored image.
func (im *ImportMetrics) AddFile(inputBytes, storedBytes int64, floorReached bool) {
	im.FileCount++
	im.InputBytes += inputBytes
	im.StoredBytes += storedBytes
	if floorReached {
		im.FloorReached++
	}
}

// Finalize stamps the total latency.
func (im *ImportMetrics) Finalize(created int) {
	im.CreatedCount = created
	im.TotalLatencyMs = float64(time.Since(im.StartTime).Microseconds()) / 1000
}

// GetSummary returns a human-readable summary of the import.
func (im *ImportMetrics) GetSummary() string {
	ratio := 0.0
	if im.InputBytes > 0 {
		ratio = float64(im.StoredBytes) / float64(im.InputBytes) * 100
	}
	return fmt.Sprintf(
		"Import Summary: %d files, %d screens created, %.2f MB in, %.2f MB stored (%.1f%%), %d at dimension floor, Duration: %.2f ms",
		im.FileCount, im.CreatedCount, float64(im.InputBytes)/(1024*1024), float64(im.StoredBytes)/(1024*1024),
		ratio, im.FloorReached, im.TotalLatencyMs,
	)
}
