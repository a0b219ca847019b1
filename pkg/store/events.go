package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

const eventColumns = `accountID, deviceID, timestamp, statusCode,
latitude, longitude, gpsAge, accuracy, satCount,
speedKPH, heading, altitude, odometerKM, inputMask,
geozoneID, geozoneIndex, address, city, postalCode,
driverID, driverMessage, engineRPM, engineHours,
batteryVolts, coolantLevel, coolantTemp, fuelTotal`

func scanEvent(rows *sql.Rows) (telemetry.Event, error) {
	var (
		ev            telemetry.Event
		geozoneID     sql.NullString
		address       sql.NullString
		city          sql.NullString
		postalCode    sql.NullString
		driverID      sql.NullString
		driverMessage sql.NullString
	)
	err := rows.Scan(
		&ev.AccountID, &ev.DeviceID, &ev.Timestamp, &ev.StatusCode,
		&ev.Point.Lat, &ev.Point.Lon, &ev.GpsAge, &ev.Accuracy, &ev.SatelliteCount,
		&ev.SpeedKPH, &ev.Heading, &ev.Altitude, &ev.OdometerKM, &ev.InputMask,
		&geozoneID, &ev.GeozoneIndex, &address, &city, &postalCode,
		&driverID, &driverMessage, &ev.EngineRPM, &ev.EngineHours,
		&ev.BatteryVolts, &ev.CoolantLevel, &ev.CoolantTempC, &ev.FuelTotalL)
	if err != nil {
		return ev, err
	}
	ev.GeozoneID = geozoneID.String
	ev.Address = address.String
	ev.City = city.String
	ev.PostalCode = postalCode.String
	ev.DriverID = driverID.String
	ev.DriverMessage = driverMessage.String
	return ev, nil
}

// RangeQuery selects one device's events inside a closed timestamp range.
// A zero To means no upper bound; Limit <= 0 means unlimited. Descending
// selects the newest slice of the range instead of the oldest.
type RangeQuery struct {
	AccountID  string
	DeviceID   string
	From       int64
	To         int64
	Limit      int
	Descending bool
	ValidGPS   bool // keep only events with a usable fix
}

// StreamEvents sends matching events row by row through a channel so large
// ranges never sit in memory. The error channel carries at most one value
// and both channels close when the scan finishes or the context ends.
func (s *Store) StreamEvents(ctx context.Context, q RangeQuery) (<-chan telemetry.Event, <-chan error) {
	out := make(chan telemetry.Event)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		query := "SELECT " + eventColumns + " FROM events WHERE accountID = ? AND deviceID = ?"
		args := []any{q.AccountID, q.DeviceID}
		if q.From > 0 {
			query += " AND timestamp >= ?"
			args = append(args, q.From)
		}
		if q.To > 0 {
			query += " AND timestamp <= ?"
			args = append(args, q.To)
		}
		if q.ValidGPS {
			query += " AND (latitude <> 0 OR longitude <> 0)"
		}
		if q.Descending {
			query += " ORDER BY timestamp DESC"
		} else {
			query += " ORDER BY timestamp ASC"
		}
		if q.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", q.Limit)
		}

		rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			errCh <- fmt.Errorf("query events: %w", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			ev, err := scanEvent(rows)
			if err != nil {
				errCh <- fmt.Errorf("scan event: %w", err)
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- fmt.Errorf("iterate events: %w", err)
		}
	}()

	return out, errCh
}

// Events collects a range into a slice. Descending queries are re-sorted
// ascending before returning so callers always see chronological order.
func (s *Store) Events(ctx context.Context, q RangeQuery) ([]telemetry.Event, error) {
	evs, errCh := s.StreamEvents(ctx, q)
	var out []telemetry.Event
	for ev := range evs {
		out = append(out, ev)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if q.Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// InsertEvent stores one event. Duplicate keys are ignored so feed
// retransmissions stay idempotent.
func (s *Store) InsertEvent(ctx context.Context, ev telemetry.Event) error {
	query := s.rebind(`
INSERT INTO events (` + eventColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (accountID, deviceID, timestamp, statusCode) DO NOTHING`)
	_, err := s.DB.ExecContext(ctx, query,
		ev.AccountID, ev.DeviceID, ev.Timestamp, ev.StatusCode,
		ev.Point.Lat, ev.Point.Lon, ev.GpsAge, ev.Accuracy, ev.SatelliteCount,
		ev.SpeedKPH, ev.Heading, ev.Altitude, ev.OdometerKM, ev.InputMask,
		ev.GeozoneID, ev.GeozoneIndex, ev.Address, ev.City, ev.PostalCode,
		ev.DriverID, ev.DriverMessage, ev.EngineRPM, ev.EngineHours,
		ev.BatteryVolts, ev.CoolantLevel, ev.CoolantTempC, ev.FuelTotalL)
	if err != nil {
		return fmt.Errorf("insert event %s/%s@%d: %w", ev.AccountID, ev.DeviceID, ev.Timestamp, err)
	}
	return nil
}

// UpdateEnrichment persists the address and geozone fields produced by the
// enrichment pass. Only those columns change; the telemetry payload is
// immutable once recorded.
func (s *Store) UpdateEnrichment(ctx context.Context, ev telemetry.Event) error {
	query := s.rebind(`
UPDATE events SET
  geozoneID = ?, geozoneIndex = ?, address = ?, city = ?, postalCode = ?
WHERE accountID = ? AND deviceID = ? AND timestamp = ? AND statusCode = ?`)
	_, err := s.DB.ExecContext(ctx, query,
		ev.GeozoneID, ev.GeozoneIndex, ev.Address, ev.City, ev.PostalCode,
		ev.AccountID, ev.DeviceID, ev.Timestamp, ev.StatusCode)
	if err != nil {
		return fmt.Errorf("update enrichment %s/%s@%d: %w", ev.AccountID, ev.DeviceID, ev.Timestamp, err)
	}
	return nil
}
