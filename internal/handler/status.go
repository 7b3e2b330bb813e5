package handler

import (
	"net/http"

	"github.com/sakif/snippet-desk/internal/model"
)

// StatusHandler answers the client's liveness and permission probe.
//
// It sits behind the same auth middleware as the data endpoints: a device
// that gets a non-2xx here stops fetching and shows its blocked screen.
type StatusHandler struct {
	status model.HostStatus
}

// NewStatusHandler serves a fixed status; IsServerRunning is always true.
func NewStatusHandler(status model.HostStatus) *StatusHandler {
	status.IsServerRunning = true
	return &StatusHandler{status: status}
}

// HandleStatus returns the host status and theme.
//
// HTTP: GET /status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status)
}
