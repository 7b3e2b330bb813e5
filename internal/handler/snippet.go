// Package handler is the HTTP layer of the reference host. Handlers parse
// requests, call a service, and translate results with writeJSON/writeError.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/service"
)

// MediaField is the multipart field uploads arrive in.
const MediaField = "media"

// maxJSONBody bounds create/update bodies. The largest valid snippet is well
// under this.
const maxJSONBody = 1 << 20

// SnippetHandler serves the snippet endpoints.
//
//	GET  /api/snippets
//	POST /api/snippets/create
//	POST /api/snippets/update
//	POST /api/snippets/delete?id=<id>
//	POST /api/media/upload?snippetId=<id>
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns the whole collection, newest modification first.
//
// HTTP: GET /api/snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate stores a snippet and answers with the stored record, id included.
//
// HTTP: POST /api/snippets/create
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSnippet(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.snippets.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// HandleUpdate saves an existing snippet. Success is any 2xx; the body is
// empty.
//
// HTTP: POST /api/snippets/update
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSnippet(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.Update(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a snippet.
//
// HTTP: POST /api/snippets/delete?id=<id>
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.snippets.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpload streams one file from multipart field "media" to disk and
// answers with the updated snippet.
//
// HTTP: POST /api/media/upload?snippetId=<id>
//
// The body is read part by part with MultipartReader instead of
// ParseMultipartForm, so nothing is buffered in memory or temp files.
func (h *SnippetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("snippetId")
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxMediaBytes+maxJSONBody)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, apperror.ValidationFailed(MediaField, "expected a multipart/form-data body"))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, apperror.ValidationFailed(MediaField, `no "media" file in the upload`))
			return
		}
		if err != nil {
			writeError(w, uploadError(err))
			return
		}
		if part.FormName() != MediaField || part.FileName() == "" {
			part.Close()
			continue
		}

		updated, err := h.snippets.AttachMedia(r.Context(), id, part.FileName(), part)
		part.Close()
		if err != nil {
			writeError(w, uploadError(err))
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}
}

func decodeSnippet(w http.ResponseWriter, r *http.Request) (model.Snippet, error) {
	var in model.Snippet
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Snippet{}, apperror.ValidationFailed("body", "request body is too large")
		}
		return model.Snippet{}, apperror.ValidationFailed("body", "invalid JSON: "+strings.TrimPrefix(err.Error(), "json: "))
	}
	return in, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed(MediaField, "media is too large")
	}
	return err
}
