// Package media performs single attachment uploads for the open snippet.
//
// The host is authoritative for the final media list: a successful upload
// returns the whole updated snippet, which the caller adopts. A failed upload
// leaves the caller's snippet untouched.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
)

// MaxUploadBytes caps a single attachment.
const MaxUploadBytes = 25 << 20

// Uploader sends one file to the host.
type Uploader interface {
	UploadMedia(ctx context.Context, id model.ID, filename string, content io.Reader) (model.Snippet, error)
}

// File is one attachment to upload.
type File struct {
	Name    string
	Size    int64 // -1 when unknown
	Content io.Reader
}

// Manager uploads attachments.
type Manager struct {
	host   Uploader
	logger *slog.Logger
}

// NewManager creates a Manager.
func NewManager(host Uploader, logger *slog.Logger) *Manager {
	return &Manager{host: host, logger: logger}
}

// Upload attaches f to snippet. snippet must already carry an id; otherwise
// the call is rejected without any network I/O.
func (m *Manager) Upload(ctx context.Context, snippet model.Snippet, f File) (model.Snippet, error) {
	if snippet.ID.IsZero() {
		return model.Snippet{}, apperror.Usage("media can only be attached to a saved snippet")
	}
	if err := validate(f); err != nil {
		return model.Snippet{}, err
	}

	updated, err := m.host.UploadMedia(ctx, snippet.ID, f.Name, f.Content)
	if err != nil {
		m.logger.Error("media upload failed",
			slog.String("id", snippet.ID.String()),
			slog.String("file", f.Name),
			slog.String("error", err.Error()),
		)
		return model.Snippet{}, err
	}
	if updated.ID.IsZero() {
		updated.ID = snippet.ID
	}

	m.logger.Info("media uploaded",
		slog.String("id", snippet.ID.String()),
		slog.String("file", f.Name),
		slog.Int("media", len(updated.MediaPaths)),
	)
	return updated, nil
}

func validate(f File) error {
	if strings.TrimSpace(f.Name) == "" {
		return apperror.Usage("attachment needs a file name")
	}
	if f.Content == nil {
		return apperror.Usage("attachment has no content")
	}
	if f.Size > MaxUploadBytes {
		return apperror.Usage(fmt.Sprintf("attachment is larger than %d MiB", MaxUploadBytes>>20))
	}
	return nil
}

// OpenFile prepares a File from disk. The caller closes the returned closer
// once the upload has finished.
func OpenFile(path string) (File, io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return File{}, nil, apperror.Usage("no file path given")
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, nil, apperror.Usage(fmt.Sprintf("cannot open %s: %v", path, err))
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return File{}, nil, fmt.Errorf("media: stat %s: %w", path, err)
	}
	if info.IsDir() {
		fh.Close()
		return File{}, nil, apperror.Usage(fmt.Sprintf("%s is a directory", path))
	}
	return File{Name: filepath.Base(path), Size: info.Size(), Content: fh}, fh, nil
}
