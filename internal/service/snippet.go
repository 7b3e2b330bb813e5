// Package service contains the business logic of the reference host.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes SQLite and the media directory
//
// Services take repository interfaces, never *sqlite.DB, so tests pass
// in-memory fakes (see snippet_test.go) and the handler never sees SQL.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/metrics"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/repository"
)

// Validation limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 20000
	MaxCodeLength        = 100000 // ~100KB of code
	MaxCategories        = 20
	MaxMediaBytes        = 25 << 20
)

// MediaPrefix is prepended to stored file names in a snippet's media paths.
// The host serves the same files under "/" + MediaPrefix.
const MediaPrefix = "media/"

// SnippetService handles the snippet endpoints' business rules.
type SnippetService struct {
	repo    repository.SnippetRepository
	media   repository.MediaRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSnippetService wires the service. metrics may be nil.
func NewSnippetService(
	repo repository.SnippetRepository,
	media repository.MediaRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:    repo,
		media:   media,
		metrics: m,
		logger:  logger,
	}
}

// validate enforces the size limits. Empty text is allowed everywhere: the
// client creates a blank snippet to obtain an id before the user types.
func validate(s *model.Snippet) error {
	if len(s.Description) > MaxTitleLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(s.FullDescription) > MaxDescriptionLength {
		return apperror.ValidationFailed("fullDescription",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(s.CodeContent) > MaxCodeLength {
		return apperror.ValidationFailed("codeContent",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if len(s.Categories) > MaxCategories {
		return apperror.ValidationFailed("categories",
			fmt.Sprintf("at most %d categories are allowed", MaxCategories))
	}
	return nil
}

// withDerived fills the read-only fields the host computes.
func withDerived(s *model.Snippet) *model.Snippet {
	s.FirstMediaURL = ""
	if len(s.MediaPaths) > 0 {
		s.FirstMediaURL = "/" + s.MediaPaths[0]
	}
	return s
}

// Create stores a new snippet and returns it with its id.
//
// Any id or media the client sent is ignored: ids are assigned here and
// media only arrives through AttachMedia.
func (s *SnippetService) Create(ctx context.Context, in model.Snippet) (*model.Snippet, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	snippet := in.Clone()
	snippet.ID = ""
	snippet.MediaPaths = []string{}

	err := s.repo.Create(ctx, &snippet)
	s.metrics.ObserveWrite("create", metrics.StatusOf(err))
	if err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("device_source", snippet.DeviceSource),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID.String()),
		slog.String("device_source", snippet.DeviceSource),
	)

	return withDerived(&snippet), nil
}

// GetByID retrieves a snippet by its ID.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return withDerived(snippet), nil
}

// List returns the whole collection, most recently modified first.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	for i := range snippets {
		withDerived(&snippets[i])
	}
	return snippets, nil
}

// Update saves the editable fields of an existing snippet. It is the target
// of every autosave, so it logs at debug level only.
func (s *SnippetService) Update(ctx context.Context, in model.Snippet) error {
	id := strings.TrimSpace(in.ID.String())
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}
	if err := validate(&in); err != nil {
		return err
	}
	in.ID = model.ID(id)

	err := s.repo.Update(ctx, &in)
	s.metrics.ObserveWrite("update", metrics.StatusOf(err))
	if err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Debug("snippet updated", slog.String("id", id))
	return nil
}

// Delete removes a snippet. Its media files stay on disk; other snippets
// never reference them, so they are only orphaned.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveWrite("delete", metrics.StatusOf(err))
	if err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// AttachMedia stores an uploaded file and appends it to the snippet's media.
//
// The snippet is checked first so an upload for an unknown id writes
// nothing. If recording the path fails the stored file is removed again.
func (s *SnippetService) AttachMedia(ctx context.Context, id, filename string, content io.Reader) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("snippetId", "snippet ID is required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	name, size, err := s.media.Save(ctx, filename, content, MaxMediaBytes)
	if err != nil {
		s.metrics.ObserveWrite("upload", metrics.Failure)
		return nil, err
	}

	snippet, err := s.repo.AddMedia(ctx, id, MediaPrefix+name)
	s.metrics.ObserveWrite("upload", metrics.StatusOf(err))
	if err != nil {
		if rmErr := s.media.Remove(name); rmErr != nil {
			s.logger.Warn("failed to remove orphaned media",
				slog.String("name", name),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("attaching media: %w", err)
	}
	s.metrics.AddUploadBytes(size)

	s.logger.Info("media attached",
		slog.String("id", id),
		slog.String("name", name),
		slog.Int64("bytes", size),
	)
	return withDerived(snippet), nil
}
