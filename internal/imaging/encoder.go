// Package imaging re-encodes screenshots so they fit under a byte ceiling.
package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ContentType of every encoded result.
const ContentType = "image/jpeg"

// ErrUnsupportedImage is returned when input cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// ErrTooManyPixels is returned when the declared dimensions exceed
// Options.MaxPixels. Nothing beyond the image header is decoded.
var ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")

// Options controls the adaptive encoder. Zero fields take the defaults.
type Options struct {
	MaxDimension int
	MinDimension int
	MaxBytes     int64
	// MaxPixels bounds width*height of decoded input.
	MaxPixels int64

	StartQuality int
	QualityStep  int
	FloorQuality int
	ResetQuality int
	ShrinkFactor float64
}

// DefaultOptions returns the screenshot defaults.
func DefaultOptions() Options {
	return Options{
		MaxDimension: 1600,
		MinDimension: 600,
		MaxBytes:     5 * 1024 * 1024 / 2,
		MaxPixels:    50_000_000,
		StartQuality: 85,
		QualityStep:  10,
		FloorQuality: 45,
		ResetQuality: 75,
		ShrinkFactor: 0.85,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxDimension <= 0 {
		o.MaxDimension = d.MaxDimension
	}
	if o.MinDimension <= 0 {
		o.MinDimension = d.MinDimension
	}
	if o.MinDimension > o.MaxDimension {
		o.MinDimension = o.MaxDimension
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = d.MaxBytes
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = d.MaxPixels
	}
	if o.StartQuality <= 0 {
		o.StartQuality = d.StartQuality
	}
	if o.QualityStep <= 0 {
		o.QualityStep = d.QualityStep
	}
	if o.FloorQuality <= 0 {
		o.FloorQuality = d.FloorQuality
	}
	if o.ResetQuality <= 0 {
		o.ResetQuality = d.ResetQuality
	}
	if o.ShrinkFactor <= 0 || o.ShrinkFactor >= 1 {
		o.ShrinkFactor = d.ShrinkFactor
	}
	return o
}

// Result is the final encoding.
type Result struct {
	Data     []byte
	Width    int
	Height   int
	Quality  int
	Attempts int
	// FloorReached is set when the ceiling could not be met before the
	// minimum dimension was hit; Data is then the smallest attempt.
	FloorReached bool
}

// Size returns the encoded byte length.
func (r *Result) Size() int64 {
	return int64(len(r.Data))
}

// EncodeReader decodes an image (PNG, JPEG, GIF or WebP) and encodes it.
// The header is checked against opts.MaxPixels before the pixel data is read.
func EncodeReader(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	if int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		return nil, errors.Wrapf(ErrTooManyPixels, "%dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	return Encode(ctx, img, opts)
}

// Encode lowers JPEG quality and then dimensions until the output is at most
// opts.MaxBytes or both dimensions are at the minimum.
func Encode(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, errors.New("image has no pixels")
	}

	// bound is the longest side allowed for the current attempt.
	bound := maxInt(srcW, srcH)
	if bound > opts.MaxDimension {
		bound = opts.MaxDimension
	}

	quality := opts.StartQuality
	res := &Result{}
	var canvas *image.RGBA

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		w, h := fit(srcW, srcH, bound)
		if canvas == nil || canvas.Bounds().Dx() != w || canvas.Bounds().Dy() != h {
			canvas = flatten(img, w, h)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
			return nil, errors.Wrap(err, "encode jpeg")
		}
		res.Attempts++
		res.Data = buf.Bytes()
		res.Width, res.Height, res.Quality = w, h, quality

		if int64(buf.Len()) <= opts.MaxBytes {
			return res, nil
		}
		if quality > opts.FloorQuality {
			quality -= opts.QualityStep
			if quality < opts.FloorQuality {
				quality = opts.FloorQuality
			}
			continue
		}

		next := int(float64(bound) * opts.ShrinkFactor)
		if next < opts.MinDimension {
			next = opts.MinDimension
		}
		if next >= bound {
			res.FloorReached = true
			return res, nil
		}
		bound = next
		quality = opts.ResetQuality
	}
}

// fit scales w×h so the longest side equals bound, keeping the aspect ratio.
// Images already inside bound are left alone.
func fit(w, h, bound int) (int, int) {
	longest := maxInt(w, h)
	if longest <= bound {
		return w, h
	}
	scale := float64(bound) / float64(longest)
	nw := maxInt(1, int(float64(w)*scale+0.5))
	nh := maxInt(1, int(float64(h)*scale+0.5))
	return nw, nh
}

// flatten draws img onto an opaque white canvas of the given size.
func flatten(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == img.Bounds().Dx() && h == img.Bounds().Dy() {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	}
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
