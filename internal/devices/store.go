package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-alerts/internal/db"
)

// Directory is the Postgres-backed device directory.
type Directory struct {
	q   db.Querier
	now func() time.Time
}

// NewDirectory creates a directory over a pool or transaction.
func NewDirectory(q db.Querier) *Directory {
	return &Directory{q: q, now: time.Now}
}

// Upsert stores token for code, overwriting any existing row, and returns the
// freshly generated registration id.
func (d *Directory) Upsert(ctx context.Context, code, token string) (string, error) {
	regID := uuid.NewString()
	_, err := d.q.Exec(ctx, "device_upsert", NormalizeCode(code), token, regID, d.now().UTC())
	if err != nil {
		return "", fmt.Errorf("upsert device: %w", err)
	}
	return regID, nil
}

// Find returns the device for code, or ErrNotFound.
func (d *Directory) Find(ctx context.Context, code string) (*Device, error) {
	var dev Device
	err := d.q.QueryRow(ctx, "device_find", NormalizeCode(code)).Scan(
		&dev.Code, &dev.PushToken, &dev.RegistrationID, &dev.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device: %w", err)
	}
	return &dev, nil
}

// ListAll returns every device joined with its registry league count.
func (d *Directory) ListAll(ctx context.Context) ([]Device, error) {
	rows, err := d.q.Query(ctx, "device_list")
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		var dev Device
		if err := rows.Scan(
			&dev.Code, &dev.PushToken, &dev.RegistrationID, &dev.UpdatedAt, &dev.LeagueCount,
		); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

// PGCodeRegistry reads the access_codes table.
type PGCodeRegistry struct {
	q db.Querier
}

// NewCodeRegistry creates a registry reader.
func NewCodeRegistry(q db.Querier) *PGCodeRegistry {
	return &PGCodeRegistry{q: q}
}

// LeagueCount returns the league count for code, or ErrUnknownCode.
func (r *PGCodeRegistry) LeagueCount(ctx context.Context, code string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, "access_code_league_count", NormalizeCode(code)).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUnknownCode
	}
	if err != nil {
		return 0, fmt.Errorf("lookup access code: %w", err)
	}
	return n, nil
}
