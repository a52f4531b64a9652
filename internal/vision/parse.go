package vision

import (
	"encoding/json"
	"strings"

	"userflow-service/internal/validation"
)

const (
	fallbackTitle       = "New Screen"
	fallbackDescription = "Screenshot uploaded successfully"
	defaultTitle        = "Untitled Screen"
	defaultDescription  = "No description available"
)

// Analysis is a generated screen title and description.
type Analysis struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// BoundingBox of a detected element, in percentages.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is one detected interactive element.
type Element struct {
	Type        string      `json:"type"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float64     `json:"confidence"`
	OrderIndex  int         `json:"order_index"`
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseAnalysis never fails: unparsable output yields the fallback, and
// blank fields are replaced with defaults.
func parseAnalysis(raw string) (Analysis, bool) {
	var parsed Analysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return Analysis{Title: fallbackTitle, Description: fallbackDescription}, false
	}
	if strings.TrimSpace(parsed.Title) == "" {
		parsed.Title = defaultTitle
	}
	if strings.TrimSpace(parsed.Description) == "" {
		parsed.Description = defaultDescription
	}
	return parsed, true
}

// parseElements keeps the elements whose box fits inside the image and
// numbers them in order. It also returns how many elements the model gave.
func parseElements(raw string) ([]Element, int, error) {
	var parsed []Element
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, 0, err
	}
	valid := make([]Element, 0, len(parsed))
	for _, e := range parsed {
		box := validation.BoundingBox{X: e.BoundingBox.X, Y: e.BoundingBox.Y, Width: e.BoundingBox.Width, Height: e.BoundingBox.Height}
		if !validation.FitsWithinImage(box) {
			continue
		}
		e.OrderIndex = len(valid)
		valid = append(valid, e)
	}
	return valid, len(parsed), nil
}
