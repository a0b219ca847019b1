package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Account loads one account row.
func (s *Store) Account(ctx context.Context, accountID string) (*telemetry.Account, error) {
	query := s.rebind(`
SELECT accountID, description, timeZone, dateFormat, timeFormat,
       speedUnits, distanceUnits, volumeUnits, tempUnits, geocoderMode
FROM accounts WHERE accountID = ?`)

	var (
		a          telemetry.Account
		desc       sql.NullString
		tz         sql.NullString
		dateFmt    sql.NullString
		timeFmt    sql.NullString
		speedU     sql.NullInt64
		distU      sql.NullInt64
		volU       sql.NullInt64
		tempU      sql.NullInt64
		geocodMode sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, query, accountID).Scan(
		&a.AccountID, &desc, &tz, &dateFmt, &timeFmt,
		&speedU, &distU, &volU, &tempU, &geocodMode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}

	a.Description = desc.String
	a.TimeZone = tz.String
	a.DateFormat = dateFmt.String
	a.TimeFormat = timeFmt.String
	a.SpeedUnits = telemetry.SpeedUnits(speedU.Int64)
	a.DistanceUnits = telemetry.DistanceUnits(distU.Int64)
	a.VolumeUnits = telemetry.VolumeUnits(volU.Int64)
	a.TemperatureUnits = telemetry.TemperatureUnits(tempU.Int64)
	a.GeocoderMode = telemetry.GeocoderMode(geocodMode.Int64)
	return &a, nil
}

// Device loads one device row without its events.
func (s *Store) Device(ctx context.Context, accountID, deviceID string) (*telemetry.Device, error) {
	query := s.rebind(`
SELECT accountID, deviceID, description, odometerOffsetKM
FROM devices WHERE accountID = ? AND deviceID = ?`)

	var (
		d      telemetry.Device
		desc   sql.NullString
		offset sql.NullFloat64
	)
	err := s.DB.QueryRowContext(ctx, query, accountID, deviceID).Scan(
		&d.AccountID, &d.DeviceID, &desc, &offset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s/%s: %w", accountID, deviceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load device %s/%s: %w", accountID, deviceID, err)
	}

	d.Description = desc.String
	d.OdometerOffsetKM = offset.Float64
	return &d, nil
}

// DeviceIDs lists the account's device ids in lexical order. Wildcard
// expansion for fleet commands builds on this.
func (s *Store) DeviceIDs(ctx context.Context, accountID string) ([]string, error) {
	query := s.rebind(`SELECT deviceID FROM devices WHERE accountID = ? ORDER BY deviceID`)
	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list devices for %s: %w", accountID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan device id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return ids, nil
}

// SaveAccount upserts an account row.
func (s *Store) SaveAccount(ctx context.Context, a *telemetry.Account) error {
	query := s.rebind(`
INSERT INTO accounts
  (accountID, description, timeZone, dateFormat, timeFormat,
   speedUnits, distanceUnits, volumeUnits, tempUnits, geocoderMode)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (accountID) DO UPDATE SET
  description = EXCLUDED.description,
  timeZone = EXCLUDED.timeZone,
  dateFormat = EXCLUDED.dateFormat,
  timeFormat = EXCLUDED.timeFormat,
  speedUnits = EXCLUDED.speedUnits,
  distanceUnits = EXCLUDED.distanceUnits,
  volumeUnits = EXCLUDED.volumeUnits,
  tempUnits = EXCLUDED.tempUnits,
  geocoderMode = EXCLUDED.geocoderMode`)
	_, err := s.DB.ExecContext(ctx, query,
		a.AccountID, a.Description, a.TimeZone, a.DateFormat, a.TimeFormat,
		int64(a.SpeedUnits), int64(a.DistanceUnits), int64(a.VolumeUnits),
		int64(a.TemperatureUnits), int64(a.GeocoderMode))
	if err != nil {
		return fmt.Errorf("save account %s: %w", a.AccountID, err)
	}
	return nil
}

// SaveDevice upserts a device row.
func (s *Store) SaveDevice(ctx context.Context, d *telemetry.Device) error {
	query := s.rebind(`
INSERT INTO devices (accountID, deviceID, description, odometerOffsetKM)
VALUES (?,?,?,?)
ON CONFLICT (accountID, deviceID) DO UPDATE SET
  description = EXCLUDED.description,
  odometerOffsetKM = EXCLUDED.odometerOffsetKM`)
	_, err := s.DB.ExecContext(ctx, query,
		d.AccountID, d.DeviceID, d.Description, d.OdometerOffsetKM)
	if err != nil {
		return fmt.Errorf("save device %s/%s: %w", d.AccountID, d.DeviceID, err)
	}
	return nil
}
