package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		}
	}
	return img
}

func noise(w, h int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestEncode_SmallImageSingleAttempt(t *testing.T) {
	res, err := Encode(context.Background(), solid(400, 300), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 85, res.Quality)
	assert.Equal(t, 400, res.Width)
	assert.Equal(t, 300, res.Height)
	assert.False(t, res.FloorReached)

	decoded, err := jpegDecode(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
}

func TestEncode_FitsInsideMaxDimension(t *testing.T) {
	res, err := Encode(context.Background(), solid(3200, 1600), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1600, res.Width)
	assert.Equal(t, 800, res.Height)
}

func TestEncode_CeilingProperty(t *testing.T) {
	cases := []struct {
		name     string
		img      image.Image
		maxBytes int64
	}{
		{"noise large", noise(1800, 1200, 1), 250 * 1024},
		{"noise medium", noise(900, 700, 2), 120 * 1024},
		{"noise tight", noise(1200, 900, 3), 40 * 1024},
		{"solid", solid(2000, 1000), 64 * 1024},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxBytes = tc.maxBytes

			res, err := Encode(context.Background(), tc.img, opts)
			require.NoError(t, err)

			if res.FloorReached {
				assert.LessOrEqual(t, maxInt(res.Width, res.Height), opts.MinDimension)
			} else {
				assert.LessOrEqual(t, res.Size(), tc.maxBytes)
			}
			assert.LessOrEqual(t, maxInt(res.Width, res.Height), opts.MaxDimension)
		})
	}
}

func TestEncode_FloorReached(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBytes = 100

	res, err := Encode(context.Background(), noise(1000, 800, 4), opts)
	require.NoError(t, err)

	assert.True(t, res.FloorReached)
	assert.Equal(t, 600, res.Width)
	assert.Equal(t, 480, res.Height)
	assert.Equal(t, 45, res.Quality)
}

func TestEncode_NeverGrowsSmallImages(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBytes = 100

	res, err := Encode(context.Background(), noise(300, 200, 5), opts)
	require.NoError(t, err)

	assert.True(t, res.FloorReached)
	assert.Equal(t, 300, res.Width)
	assert.Equal(t, 200, res.Height)
	// 85, 75, 65, 55, 45
	assert.Equal(t, 5, res.Attempts)
}

func TestEncode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Encode(ctx, solid(100, 100), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeReader_FlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	res, err := EncodeReader(context.Background(), &buf, DefaultOptions())
	require.NoError(t, err)

	decoded, err := jpegDecode(res.Data)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(10, 10).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncodeReader_RejectsGarbage(t *testing.T) {
	_, err := EncodeReader(context.Background(), bytes.NewReader([]byte("not an image")), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// pngDeclaring encodes a 1x1 PNG and rewrites its header to claim w x h.
func pngDeclaring(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()

	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestEncodeReader_RejectsOversizedDeclaredDimensions(t *testing.T) {
	data := pngDeclaring(t, 100000, 100000)
	assert.Less(t, len(data), 1024)

	_, err := EncodeReader(context.Background(), bytes.NewReader(data), DefaultOptions())
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestEncodeReader_PixelLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1200, 1000))))
	data := buf.Bytes()

	opts := DefaultOptions()
	opts.MaxPixels = 1_000_000
	_, err := EncodeReader(context.Background(), bytes.NewReader(data), opts)
	assert.ErrorIs(t, err, ErrTooManyPixels)

	opts.MaxPixels = 1_200_000
	res, err := EncodeReader(context.Background(), bytes.NewReader(data), opts)
	require.NoError(t, err)
	assert.Equal(t, 1200, res.Width)
	assert.Equal(t, 1000, res.Height)
}

func jpegDecode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
