package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/config"
	"github.com/sakif/snippet-desk/internal/hostapi"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/server"
)

func newTestServer(t *testing.T, cfg config.Host) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg.DBPath = ":memory:"
	cfg.MediaDir = filepath.Join(t.TempDir(), "media")
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ThemeMode == "" {
		cfg.ThemeMode = "dark"
	}

	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, baseURL, token string) *hostapi.Client {
	t.Helper()
	c, err := hostapi.New(hostapi.Config{BaseURL: baseURL, Token: token}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func authedRequest(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestOpenHost_FullSession(t *testing.T) {
	ts := newTestServer(t, config.Host{AccentColor: "#00ff00"})
	c := newClient(t, ts.URL, "")
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsServerRunning)
	assert.Equal(t, "#00ff00", st.AccentColor)

	created, err := c.Create(ctx, model.Snippet{Description: "draft", DeviceSource: model.DeviceSourceTerminal})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	created.CodeContent = "fmt.Println(1)"
	require.NoError(t, c.Update(ctx, created))

	updated, err := c.UploadMedia(ctx, created.ID, "shot.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Len(t, updated.MediaPaths, 1)
	assert.Equal(t, "fmt.Println(1)", updated.CodeContent)

	resp, err := http.Get(c.ResolveURL(updated.FirstMediaURL))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", string(body))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, updated.MediaPaths, list[0].MediaPaths)

	require.NoError(t, c.Delete(ctx, created.ID))
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMediaDirectoryListingIsRefused(t *testing.T) {
	ts := newTestServer(t, config.Host{})

	resp, err := http.Get(ts.URL + "/media/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, config.Host{})
	c := newClient(t, ts.URL, "")
	_, err := c.List(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `route="/api/snippets"`)
}

func TestPairedHost_TokenLifecycle(t *testing.T) {
	ts := newTestServer(t, config.Host{
		JWTSecret:   "test-secret-at-least-16-chars!!",
		PairingCode: "open-sesame",
	})
	ctx := context.Background()

	anonymous := newClient(t, ts.URL, "")
	_, err := anonymous.Status(ctx)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
	_, err = anonymous.List(ctx)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)

	_, err = anonymous.Pair(ctx, "wrong", "laptop")
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)

	token, err := anonymous.Pair(ctx, "open-sesame", "laptop")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	paired := newClient(t, ts.URL, token)
	_, err = paired.Status(ctx)
	require.NoError(t, err)
	_, err = paired.Create(ctx, model.Snippet{Description: "mine"})
	require.NoError(t, err)

	resp := authedRequest(t, http.MethodGet, ts.URL+"/api/devices", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var devices []model.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "laptop", devices[0].Name)

	resp = authedRequest(t, http.MethodDelete, ts.URL+"/api/devices/"+devices[0].ID, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = paired.Status(ctx)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
}
