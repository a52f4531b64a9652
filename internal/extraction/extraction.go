// Package extraction reads screenshots out of uploaded archives.
package extraction

import (
	"context"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// ErrNoImages is returned when an archive holds no usable image.
var ErrNoImages = errors.New("archive contains no images")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Image is one extracted file.
type Image struct {
	// Path inside the archive, slash separated.
	Path string
	Data []byte
}

// Name returns the file name without directory or extension.
func (i Image) Name() string {
	base := path.Base(i.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Limits bound what one archive may produce.
type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// ExtractImages opens a ZIP, TAR or RAR archive (optionally compressed) and
// returns its images sorted by path. Hidden files and resource forks are
// skipped, as is anything that is not an image.
func ExtractImages(ctx context.Context, archivePath string, limits Limits) ([]Image, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}

	var images []Image
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if hidden(p) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(path.Ext(p))] {
			return nil
		}
		if limits.MaxFiles > 0 && len(images) >= limits.MaxFiles {
			return errors.Errorf("archive holds more than %d images", limits.MaxFiles)
		}

		data, err := readFile(fsys, p, limits.MaxFileBytes)
		if err != nil {
			return err
		}
		images = append(images, Image{Path: p, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Path < images[j].Path })
	return images, nil
}

func readFile(fsys fs.FS, p string, maxBytes int64) ([]byte, error) {
	reader, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.Errorf("%s exceeds %d bytes", p, maxBytes)
	}
	return data, nil
}

func hidden(p string) bool {
	if p == "." {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") || seg == "__MACOSX" {
			return true
		}
	}
	return false
}
