package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/auth"
	"github.com/sakif/snippet-desk/internal/model"
)

type mockDeviceRepo struct {
	devices map[string]*model.Device
	nextID  int
}

func newMockDevices() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*model.Device)}
}

func (m *mockDeviceRepo) CreateDevice(_ context.Context, d *model.Device) error {
	m.nextID++
	d.ID = fmt.Sprintf("device-%d", m.nextID)
	stored := *d
	m.devices[d.ID] = &stored
	return nil
}

func (m *mockDeviceRepo) GetDeviceByID(_ context.Context, id string) (*model.Device, error) {
	d, ok := m.devices[id]
	if !ok {
		return nil, apperror.NotFound("device", id)
	}
	out := *d
	return &out, nil
}

func (m *mockDeviceRepo) ListDevices(_ context.Context) ([]model.Device, error) {
	out := make([]model.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDeviceRepo) TouchDevice(_ context.Context, id string, at time.Time) error {
	d, ok := m.devices[id]
	if !ok {
		return apperror.NotFound("device", id)
	}
	d.LastSeen = at
	return nil
}

func (m *mockDeviceRepo) DeleteDevice(_ context.Context, id string) error {
	if _, ok := m.devices[id]; !ok {
		return apperror.NotFound("device", id)
	}
	delete(m.devices, id)
	return nil
}

func newTestPairing(t *testing.T, code string) (*PairingService, *mockDeviceRepo) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	devices := newMockDevices()
	svc, err := NewPairingService(devices, tokens, auth.NewCodeHasherForTest(bcrypt.MinCost), code, nil, newTestLogger())
	require.NoError(t, err)
	return svc, devices
}

func TestPair_IssuesWorkingToken(t *testing.T) {
	svc, devices := newTestPairing(t, "482913")

	token, err := svc.Pair(context.Background(), " 482913 ", "")
	require.NoError(t, err)
	require.Len(t, devices.devices, 1)

	deviceID, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceName, devices.devices[deviceID].Name)
	assert.False(t, devices.devices[deviceID].LastSeen.IsZero())
}

func TestPair_WrongCodeIsPermissionDenied(t *testing.T) {
	svc, devices := newTestPairing(t, "482913")

	_, err := svc.Pair(context.Background(), "000000", "laptop")
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
	assert.Empty(t, devices.devices)
}

func TestPair_DisabledWithoutCode(t *testing.T) {
	svc, _ := newTestPairing(t, "")

	_, err := svc.Pair(context.Background(), "anything", "laptop")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.True(t, svc.Enabled())
}

func TestNewPairingService_CodeNeedsTokens(t *testing.T) {
	_, err := NewPairingService(newMockDevices(), nil, auth.NewCodeHasherForTest(bcrypt.MinCost), "123", nil, newTestLogger())
	assert.Error(t, err)

	open, err := NewPairingService(newMockDevices(), nil, auth.NewCodeHasherForTest(bcrypt.MinCost), "", nil, newTestLogger())
	require.NoError(t, err)
	assert.False(t, open.Enabled())
}

func TestAuthenticate_RevokedDevice(t *testing.T) {
	svc, devices := newTestPairing(t, "482913")
	token, err := svc.Pair(context.Background(), "482913", "laptop")
	require.NoError(t, err)

	list, err := svc.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Revoke(context.Background(), list[0].ID))
	assert.Empty(t, devices.devices)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
}

func TestAuthenticate_BadToken(t *testing.T) {
	svc, _ := newTestPairing(t, "482913")

	_, err := svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
}
