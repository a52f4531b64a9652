package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBoundingBox_AcceptsRange(t *testing.T) {
	for _, v := range []float64{0, 0.5, 50, 99.999, 100} {
		assert.NoError(t, ValidateBoundingBox(BoundingBox{X: v, Y: v, Width: v, Height: v}), "value %v", v)
	}
}

func TestValidateBoundingBox_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		box   BoundingBox
		field string
	}{
		{"negative x", BoundingBox{X: -0.1, Y: 10, Width: 10, Height: 10}, "x_position"},
		{"y above", BoundingBox{X: 10, Y: 100.01, Width: 10, Height: 10}, "y_position"},
		{"width above", BoundingBox{X: 10, Y: 10, Width: 150, Height: 10}, "width"},
		{"negative height", BoundingBox{X: 10, Y: 10, Width: 10, Height: -5}, "height"},
		{"nan", BoundingBox{X: math.NaN(), Y: 10, Width: 10, Height: 10}, "x_position"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBoundingBox(tc.box)
			require.Error(t, err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateBoundingBoxPatch_OnlyProvided(t *testing.T) {
	bad := 120.0
	good := 40.0

	assert.NoError(t, ValidateBoundingBoxPatch(BoundingBoxPatch{}))
	assert.NoError(t, ValidateBoundingBoxPatch(BoundingBoxPatch{Width: &good}))
	assert.Error(t, ValidateBoundingBoxPatch(BoundingBoxPatch{X: &good, Height: &bad}))
}

func TestFitsWithinImage(t *testing.T) {
	assert.True(t, FitsWithinImage(BoundingBox{X: 10, Y: 10, Width: 90, Height: 90}))
	assert.False(t, FitsWithinImage(BoundingBox{X: 20, Y: 10, Width: 90, Height: 10}))
	assert.False(t, FitsWithinImage(BoundingBox{X: 10, Y: 10, Width: 0, Height: 10}))
	assert.False(t, FitsWithinImage(BoundingBox{X: -1, Y: 10, Width: 5, Height: 5}))
}

func TestValidatePoint(t *testing.T) {
	assert.NoError(t, ValidatePoint(0, 100))
	assert.Error(t, ValidatePoint(101, 5))
	assert.Error(t, ValidatePoint(5, -1))
}

func TestNonEmpty(t *testing.T) {
	assert.NoError(t, NonEmpty("Checkout", "name"))

	err := NonEmpty("   ", "name")
	require.Error(t, err)
	assert.Equal(t, "name: is required", err.Error())
}

func TestValidateImageUpload(t *testing.T) {
	assert.NoError(t, ValidateImageUpload("image/png", 1024, 2048))
	assert.Error(t, ValidateImageUpload("application/pdf", 1024, 2048))
	assert.Error(t, ValidateImageUpload("image/jpeg", 0, 2048))
	assert.Error(t, ValidateImageUpload("image/jpeg", 4096, 2048))
}

func TestValidateColor(t *testing.T) {
	assert.NoError(t, ValidateColor("#3b82f6", "color"))
	assert.NoError(t, ValidateColor("#FFF", "color"))
	assert.Error(t, ValidateColor("blue", "color"))
	assert.Error(t, ValidateColor("#12345", "color"))
}
