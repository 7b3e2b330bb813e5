package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/auth"
	"github.com/sakif/snippet-desk/internal/metrics"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/repository"
)

const (
	DefaultDeviceName = "terminal"
	MaxDeviceName     = 64
)

// PairingService exchanges the host's pairing code for device tokens and
// checks those tokens on every request.
//
//	PairHandler → PairingService → DeviceRepository (DB)
//	            ↘ TokenService (JWT), CodeHasher (bcrypt)
//
// With a nil TokenService the host runs open: Enabled reports false and the
// server mounts no auth middleware.
type PairingService struct {
	devices  repository.DeviceRepository
	tokens   *auth.TokenService
	hasher   *auth.CodeHasher
	codeHash string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewPairingService hashes code once. An empty code disables /api/pair.
func NewPairingService(
	devices repository.DeviceRepository,
	tokens *auth.TokenService,
	hasher *auth.CodeHasher,
	code string,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*PairingService, error) {
	s := &PairingService{
		devices: devices,
		tokens:  tokens,
		hasher:  hasher,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	if code != "" {
		if tokens == nil {
			return nil, errors.New("service: a pairing code needs a token secret")
		}
		hash, err := hasher.Hash(code)
		if err != nil {
			return nil, fmt.Errorf("service: hashing pairing code: %w", err)
		}
		s.codeHash = hash
	}
	return s, nil
}

// Enabled reports whether requests must carry a device token.
func (s *PairingService) Enabled() bool { return s.tokens != nil }

// Pair verifies code, records a device and returns its bearer token.
func (s *PairingService) Pair(ctx context.Context, code, name string) (string, error) {
	if s.codeHash == "" {
		return "", apperror.Forbidden("pairing is disabled on this host")
	}

	if err := s.hasher.Verify(s.codeHash, strings.TrimSpace(code)); err != nil {
		s.metrics.ObservePairing(metrics.Failure)
		if errors.Is(err, auth.ErrInvalidCode) {
			s.logger.Warn("pairing rejected", slog.String("reason", "invalid code"))
			return "", apperror.PermissionDenied("invalid pairing code", nil)
		}
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDeviceName
	}
	if len(name) > MaxDeviceName {
		name = name[:MaxDeviceName]
	}

	device := &model.Device{Name: name}
	if err := s.devices.CreateDevice(ctx, device); err != nil {
		s.metrics.ObservePairing(metrics.Failure)
		return "", fmt.Errorf("pairing device: %w", err)
	}

	token, err := s.tokens.Generate(device.ID)
	if err != nil {
		s.metrics.ObservePairing(metrics.Failure)
		return "", fmt.Errorf("pairing device: %w", err)
	}

	s.metrics.ObservePairing(metrics.Success)
	s.logger.Info("device paired",
		slog.String("device_id", device.ID),
		slog.String("name", device.Name),
	)
	return token, nil
}

// Authenticate implements auth.Authenticator. A valid signature is not
// enough: the device must still be paired.
func (s *PairingService) Authenticate(ctx context.Context, token string) (string, error) {
	if s.tokens == nil {
		return "", apperror.PermissionDenied("authentication is disabled", nil)
	}
	deviceID, err := s.tokens.Validate(token)
	if err != nil {
		return "", apperror.PermissionDenied("invalid token", err)
	}
	if err := s.devices.TouchDevice(ctx, deviceID, s.now()); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.PermissionDenied("device has been revoked", nil)
		}
		return "", err
	}
	return deviceID, nil
}

// Devices lists the paired devices.
func (s *PairingService) Devices(ctx context.Context) ([]model.Device, error) {
	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Revoke unpairs a device. Its token fails on the next request.
func (s *PairingService) Revoke(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "device ID is required")
	}
	if err := s.devices.DeleteDevice(ctx, id); err != nil {
		return err
	}
	s.logger.Info("device revoked", slog.String("device_id", id))
	return nil
}
