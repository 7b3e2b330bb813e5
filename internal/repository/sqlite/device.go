package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/repository"
)

// compile-time check that *DB implements repository.DeviceRepository
var _ repository.DeviceRepository = (*DB)(nil)

// CreateDevice records a newly paired device and assigns its ID.
func (db *DB) CreateDevice(ctx context.Context, device *model.Device) error {
	now := time.Now().UTC()
	device.ID = xid.New().String()
	device.PairedAt = now
	device.LastSeen = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO devices (id, name, paired_at, last_seen) VALUES (?, ?, ?, ?)`,
		device.ID,
		device.Name,
		device.PairedAt,
		device.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting device %q: %w", device.Name, err)
	}
	return nil
}

// GetDeviceByID retrieves a device by its ID.
// Returns apperror.ErrNotFound once the device has been revoked.
func (db *DB) GetDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	var d model.Device

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, paired_at, last_seen FROM devices WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.Name, &d.PairedAt, &d.LastSeen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("device", id)
		}
		return nil, fmt.Errorf("sqlite: getting device %s: %w", id, err)
	}

	d.PairedAt, d.LastSeen = d.PairedAt.UTC(), d.LastSeen.UTC()
	return &d, nil
}

// ListDevices returns every paired device, oldest pairing first.
func (db *DB) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, paired_at, last_seen FROM devices ORDER BY paired_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0)
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.PairedAt, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("sqlite: scanning device row: %w", err)
		}
		d.PairedAt, d.LastSeen = d.PairedAt.UTC(), d.LastSeen.UTC()
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating devices: %w", err)
	}
	return devices, nil
}

// TouchDevice records that the device made an authenticated request.
func (db *DB) TouchDevice(ctx context.Context, id string, at time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE devices SET last_seen = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching device %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("device", id)
	}
	return nil
}

// DeleteDevice revokes a device.
func (db *DB) DeleteDevice(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting device %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("device", id)
	}
	return nil
}
