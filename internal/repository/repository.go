// Package repository declares the storage contracts of the reference host.
// internal/repository/sqlite and internal/repository/disk implement them;
// services depend only on these interfaces.
package repository

import (
	"context"
	"io"
	"time"

	"github.com/sakif/snippet-desk/internal/model"
)

type SnippetRepository interface {
	// Create assigns the id and fills zero dates.
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// List returns the whole collection, most recently modified first.
	List(ctx context.Context) ([]model.Snippet, error)
	// Update overwrites the editable fields. Media paths are left alone:
	// they only change through AddMedia.
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
	// AddMedia appends path to the snippet's media and returns the new record.
	AddMedia(ctx context.Context, id, path string) (*model.Snippet, error)
}

type DeviceRepository interface {
	CreateDevice(ctx context.Context, device *model.Device) error
	GetDeviceByID(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	TouchDevice(ctx context.Context, id string, at time.Time) error
	DeleteDevice(ctx context.Context, id string) error
}

// MediaRepository stores uploaded files under host-chosen names.
type MediaRepository interface {
	Save(ctx context.Context, originalName string, r io.Reader, limit int64) (name string, size int64, err error)
	Remove(name string) error
}
