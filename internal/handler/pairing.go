package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/service"
)

// PairingHandler issues device tokens and manages paired devices.
type PairingHandler struct {
	pairing *service.PairingService
	logger  *slog.Logger
}

func NewPairingHandler(pairing *service.PairingService, logger *slog.Logger) *PairingHandler {
	return &PairingHandler{pairing: pairing, logger: logger}
}

type pairRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type pairResponse struct {
	Token string `json:"token"`
}

// HandlePair exchanges the pairing code for a bearer token.
//
// HTTP: POST /api/pair  {"code": "...", "name": "..."} → {"token": "..."}
func (h *PairingHandler) HandlePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "expected {\"code\": \"...\"}"))
		return
	}

	token, err := h.pairing.Pair(r.Context(), req.Code, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse{Token: token})
}

// HandleListDevices lists paired devices.
//
// HTTP: GET /api/devices
func (h *PairingHandler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.pairing.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// HandleRevokeDevice unpairs a device.
//
// HTTP: DELETE /api/devices/{id}
func (h *PairingHandler) HandleRevokeDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.pairing.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
