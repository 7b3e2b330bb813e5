// Package disk stores uploaded media as plain files under one directory.
package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/repository"
)

var _ repository.MediaRepository = (*MediaStore)(nil)

// MediaStore writes each upload to <dir>/<uuid><ext>. Names never come from
// the client, so two uploads of "screenshot.png" cannot collide and a
// crafted filename cannot escape dir.
type MediaStore struct {
	dir string
}

// NewMediaStore creates dir if needed.
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk: creating media dir: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Dir is the directory files are served from.
func (s *MediaStore) Dir() string { return s.dir }

// Save copies r to a new file and returns its stored name and size. At most
// limit bytes are accepted; a larger upload is removed and rejected.
func (s *MediaStore) Save(ctx context.Context, originalName string, r io.Reader, limit int64) (string, int64, error) {
	name := uuid.NewString() + cleanExt(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("disk: creating %s: %w", name, err)
	}

	n, err := io.Copy(f, io.LimitReader(&ctxReader{ctx: ctx, r: r}, limit+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		os.Remove(path)
		return "", 0, fmt.Errorf("disk: writing %s: %w", name, err)
	case closeErr != nil:
		os.Remove(path)
		return "", 0, fmt.Errorf("disk: closing %s: %w", name, closeErr)
	case n > limit:
		os.Remove(path)
		return "", 0, apperror.ValidationFailed("media", fmt.Sprintf("media must be %d MiB or smaller", limit>>20))
	}
	return name, n, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *MediaStore) Remove(name string) error {
	if name != filepath.Base(name) {
		return apperror.ValidationFailed("media", "invalid media name")
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disk: removing %s: %w", name, err)
	}
	return nil
}

// cleanExt keeps a short alphanumeric extension and drops anything else.
func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// ctxReader stops a long copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
