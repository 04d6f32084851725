package imagestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/niksmo/marketplace/internal/core/port"
)

var _ port.ImageStore = (*LocalImageStore)(nil)

// LocalImageStore keeps uploaded product images on a local filesystem
// and serves them back through the public base URL.
type LocalImageStore struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

func New(fs afero.Fs, dir, baseURL string) (*LocalImageStore, error) {
	const op = "imagestore.New"

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LocalImageStore{
		fs:      fs,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveImage stores the image under the product id, one image per
// product: a re-upload replaces the previous file.
func (s *LocalImageStore) SaveImage(
	ctx context.Context, productID, fileName string, data io.Reader,
) (string, error) {
	const op = "LocalImageStore.SaveImage"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := productID + ext(fileName)

	f, err := s.fs.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.baseURL + "/" + name, nil
}

func ext(fileName string) string {
	e := strings.ToLower(path.Ext(fileName))
	switch e {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return e
	default:
		return ".jpg"
	}
}
