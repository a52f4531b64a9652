// Package validation holds the pure input checks shared by the services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Error is a field-level validation failure.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newError(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

const (
	minPercent = 0.0
	maxPercent = 100.0
)

// BoundingBox is a rectangle expressed in percentages of the image size.
type BoundingBox struct {
	X      float64 `json:"x_position"`
	Y      float64 `json:"y_position"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundingBoxPatch carries the subset of box fields present in an update.
type BoundingBoxPatch struct {
	X      *float64 `json:"x_position"`
	Y      *float64 `json:"y_position"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// ValidateBoundingBox rejects a box if any component lies outside [0, 100].
func ValidateBoundingBox(box BoundingBox) error {
	return ValidateBoundingBoxPatch(BoundingBoxPatch{
		X: &box.X, Y: &box.Y, Width: &box.Width, Height: &box.Height,
	})
}

// ValidateBoundingBoxPatch checks only the provided components.
func ValidateBoundingBoxPatch(p BoundingBoxPatch) error {
	for _, c := range []struct {
		field string
		value *float64
	}{
		{"x_position", p.X},
		{"y_position", p.Y},
		{"width", p.Width},
		{"height", p.Height},
	} {
		if c.value == nil {
			continue
		}
		if err := percent(c.field, *c.value); err != nil {
			return err
		}
	}
	return nil
}

// FitsWithinImage reports whether a box has a positive area and stays inside
// the image on both axes.
func FitsWithinImage(box BoundingBox) bool {
	if ValidateBoundingBox(box) != nil {
		return false
	}
	if box.Width <= 0 || box.Height <= 0 {
		return false
	}
	return box.X+box.Width <= maxPercent && box.Y+box.Height <= maxPercent
}

// ValidatePoint checks a pin position.
func ValidatePoint(x, y float64) error {
	if err := percent("x_position", x); err != nil {
		return err
	}
	return percent("y_position", y)
}

// NonEmpty rejects blank strings.
func NonEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return newError(field, "is required")
	}
	return nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor accepts #rgb and #rrggbb.
func ValidateColor(value, field string) error {
	if !hexColor.MatchString(value) {
		return newError(field, "must be a hex colour such as #3b82f6")
	}
	return nil
}

// ValidateImageUpload checks the declared content type and size of an upload.
func ValidateImageUpload(contentType string, size, maxBytes int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return newError("file", "must be an image")
	}
	if size <= 0 {
		return newError("file", "is empty")
	}
	if maxBytes > 0 && size > maxBytes {
		return newError("file", "exceeds the %d byte limit", maxBytes)
	}
	return nil
}

func percent(field string, v float64) error {
	// NaN fails both comparisons, so test the accepted range directly.
	if !(v >= minPercent && v <= maxPercent) {
		return newError(field, "must be between 0 and 100")
	}
	return nil
}
