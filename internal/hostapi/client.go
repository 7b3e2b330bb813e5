// Package hostapi is the client side of the host's REST contract.
//
// ENDPOINTS:
//
//	GET  /status                            → model.HostStatus (non-2xx ⇒ permission denied)
//	GET  /api/snippets                      → []model.Snippet
//	POST /api/snippets/create               → created model.Snippet (with id)
//	POST /api/snippets/update               → 2xx only
//	POST /api/snippets/delete?id=<id>       → 2xx only
//	POST /api/media/upload?snippetId=<id>   → updated model.Snippet (multipart field "media")
//	POST /api/pair                          → {"token": "..."} (reference host only)
//
// Once the session is blocked (see Block), every call fails fast with
// apperror.ErrPermissionDenied and no request leaves the process.
package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
)

// MediaField is the multipart field name the host reads uploads from.
const MediaField = "media"

// Config configures a Client.
type Config struct {
	BaseURL    string       // e.g. "http://192.168.1.20:8080"
	Token      string       // optional bearer token
	HTTPClient *http.Client // optional; defaults to a client with a 30s timeout
}

// Client talks to one host. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
	blocked atomic.Bool
}

// StatusError carries a non-2xx response.
type StatusError struct {
	StatusCode int
	Kind       string // machine-readable "error" field from the host, if any
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("host returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("host returned %d", e.StatusCode)
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, apperror.ValidationFailed("host", "host URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("hostapi: parsing host URL: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:   base,
		token:  strings.TrimSpace(cfg.Token),
		http:   hc,
		logger: logger,
	}, nil
}

// Block latches the client into the permission-denied state.
func (c *Client) Block() { c.blocked.Store(true) }

// Blocked reports whether Block has been called.
func (c *Client) Blocked() bool { return c.blocked.Load() }

// ResolveURL turns a host-relative media reference into an absolute URL.
func (c *Client) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// Status performs the liveness/permission check.
func (c *Client) Status(ctx context.Context) (model.HostStatus, error) {
	var st model.HostStatus
	resp, err := c.do(ctx, http.MethodGet, "/status", nil, nil, "")
	if err != nil {
		return st, apperror.PermissionDenied("host unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return st, apperror.PermissionDenied("permission denied by host", readStatusError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, apperror.PermissionDenied("malformed status response", err)
	}
	return st, nil
}

// List fetches the full snippet collection.
func (c *Client) List(ctx context.Context) ([]model.Snippet, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/snippets", nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("hostapi: listing snippets: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("hostapi: listing snippets: %w", err)
	}

	var out []model.Snippet
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("hostapi: decoding snippets: %w", err)
	}
	if out == nil {
		out = []model.Snippet{}
	}
	return out, nil
}

// Create persists s (which must not carry an id) and returns the stored record.
func (c *Client) Create(ctx context.Context, s model.Snippet) (model.Snippet, error) {
	if !s.ID.IsZero() {
		return model.Snippet{}, apperror.Usage("create called with an existing id")
	}
	var created model.Snippet
	if err := c.postJSON(ctx, "/api/snippets/create", nil, s, &created); err != nil {
		return model.Snippet{}, apperror.WriteFailed("create snippet", err)
	}
	if created.ID.IsZero() {
		return model.Snippet{}, apperror.WriteFailed("create snippet",
			fmt.Errorf("host response carried no id"))
	}
	return created, nil
}

// Update sends the full record.
func (c *Client) Update(ctx context.Context, s model.Snippet) error {
	if s.ID.IsZero() {
		return apperror.Usage("update called without an id")
	}
	if err := c.postJSON(ctx, "/api/snippets/update", nil, s, nil); err != nil {
		return apperror.WriteFailed("update snippet", err)
	}
	return nil
}

// Delete removes the snippet with the given id.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	if id.IsZero() {
		return apperror.Usage("delete called without an id")
	}
	q := url.Values{"id": {id.String()}}
	if err := c.postJSON(ctx, "/api/snippets/delete", q, nil, nil); err != nil {
		return apperror.WriteFailed("delete snippet", err)
	}
	return nil
}

// UploadMedia streams one file as multipart field "media" and returns the
// updated snippet as the host now stores it.
func (c *Client) UploadMedia(ctx context.Context, id model.ID, filename string, content io.Reader) (model.Snippet, error) {
	if id.IsZero() {
		return model.Snippet{}, apperror.Usage("media can only be attached to a saved snippet")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(MediaField, filename)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	q := url.Values{"snippetId": {id.String()}}
	resp, err := c.do(ctx, http.MethodPost, "/api/media/upload", q, pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return model.Snippet{}, apperror.WriteFailed("upload media", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return model.Snippet{}, apperror.WriteFailed("upload media", err)
	}

	var updated model.Snippet
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return model.Snippet{}, apperror.WriteFailed("upload media", fmt.Errorf("decoding response: %w", err))
	}
	return updated, nil
}

// Pair exchanges a pairing code for a bearer token. name labels this device
// in the host's device list.
func (c *Client) Pair(ctx context.Context, code, name string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"code": code, "name": name}
	if err := c.postJSON(ctx, "/api/pair", nil, body, &out); err != nil {
		var se *StatusError
		if asStatusError(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return "", apperror.PermissionDenied("pairing code rejected", err)
		}
		return "", fmt.Errorf("hostapi: pairing: %w", err)
	}
	return out.Token, nil
}

func (c *Client) postJSON(ctx context.Context, path string, q url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, http.MethodPost, path, q, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if c.Blocked() {
		return nil, apperror.PermissionDenied("session blocked", nil)
	}

	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("host request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	c.logger.Debug("host request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// checkResponse maps non-2xx to a typed error. 401 becomes PermissionDenied
// regardless of endpoint.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	se := readStatusError(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return apperror.PermissionDenied("permission denied by host", se)
	}
	return se
}

func readStatusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && (body.Error != "" || body.Message != "") {
		se.Kind = body.Error
		se.Message = body.Message
	} else {
		se.Message = strings.TrimSpace(string(data))
	}
	return se
}
