package store

import (
	"fmt"
	"strings"
)

// InitSchema creates the three tables synchronously so commands can run
// immediately after first start. Unit and geocoder columns hold the integer
// enum values from the telemetry package.
func (s *Store) InitSchema() error {
	var schema string

	switch s.Driver {
	case "pgx":
		schema = `
CREATE TABLE IF NOT EXISTS accounts (
  accountID     TEXT PRIMARY KEY,
  description   TEXT,
  timeZone      TEXT,
  dateFormat    TEXT,
  timeFormat    TEXT,
  speedUnits    INTEGER,
  distanceUnits INTEGER,
  volumeUnits   INTEGER,
  tempUnits     INTEGER,
  geocoderMode  INTEGER
);

CREATE TABLE IF NOT EXISTS devices (
  accountID        TEXT,
  deviceID         TEXT,
  description      TEXT,
  odometerOffsetKM DOUBLE PRECISION,
  PRIMARY KEY (accountID, deviceID)
);

CREATE TABLE IF NOT EXISTS events (
  accountID     TEXT,
  deviceID      TEXT,
  timestamp     BIGINT,
  statusCode    INTEGER,
  latitude      DOUBLE PRECISION,
  longitude     DOUBLE PRECISION,
  gpsAge        BIGINT,
  accuracy      DOUBLE PRECISION,
  satCount      INTEGER,
  speedKPH      DOUBLE PRECISION,
  heading       DOUBLE PRECISION,
  altitude      DOUBLE PRECISION,
  odometerKM    DOUBLE PRECISION,
  inputMask     BIGINT,
  geozoneID     TEXT,
  geozoneIndex  INTEGER,
  address       TEXT,
  city          TEXT,
  postalCode    TEXT,
  driverID      TEXT,
  driverMessage TEXT,
  engineRPM     BIGINT,
  engineHours   DOUBLE PRECISION,
  batteryVolts  DOUBLE PRECISION,
  coolantLevel  DOUBLE PRECISION,
  coolantTemp   DOUBLE PRECISION,
  fuelTotal     DOUBLE PRECISION,
  PRIMARY KEY (accountID, deviceID, timestamp, statusCode)
);

CREATE INDEX IF NOT EXISTS idx_events_device_time
  ON events (accountID, deviceID, timestamp);

CREATE TABLE IF NOT EXISTS geozones (
  accountID   TEXT,
  zoneID      TEXT,
  sortIndex   INTEGER,
  description TEXT,
  latitude    DOUBLE PRECISION,
  longitude   DOUBLE PRECISION,
  radiusM     DOUBLE PRECISION,
  PRIMARY KEY (accountID, zoneID)
);
`

	case "sqlite", "genji", "duckdb":
		schema = `
CREATE TABLE IF NOT EXISTS accounts (
  accountID     TEXT PRIMARY KEY,
  description   TEXT,
  timeZone      TEXT,
  dateFormat    TEXT,
  timeFormat    TEXT,
  speedUnits    INTEGER,
  distanceUnits INTEGER,
  volumeUnits   INTEGER,
  tempUnits     INTEGER,
  geocoderMode  INTEGER
);

CREATE TABLE IF NOT EXISTS devices (
  accountID        TEXT,
  deviceID         TEXT,
  description      TEXT,
  odometerOffsetKM REAL,
  PRIMARY KEY (accountID, deviceID)
);

CREATE TABLE IF NOT EXISTS events (
  accountID     TEXT,
  deviceID      TEXT,
  timestamp     BIGINT,
  statusCode    INTEGER,
  latitude      REAL,
  longitude     REAL,
  gpsAge        BIGINT,
  accuracy      REAL,
  satCount      INTEGER,
  speedKPH      REAL,
  heading       REAL,
  altitude      REAL,
  odometerKM    REAL,
  inputMask     BIGINT,
  geozoneID     TEXT,
  geozoneIndex  INTEGER,
  address       TEXT,
  city          TEXT,
  postalCode    TEXT,
  driverID      TEXT,
  driverMessage TEXT,
  engineRPM     BIGINT,
  engineHours   REAL,
  batteryVolts  REAL,
  coolantLevel  REAL,
  coolantTemp   REAL,
  fuelTotal     REAL,
  PRIMARY KEY (accountID, deviceID, timestamp, statusCode)
);

CREATE INDEX IF NOT EXISTS idx_events_device_time
  ON events (accountID, deviceID, timestamp);

CREATE TABLE IF NOT EXISTS geozones (
  accountID   TEXT,
  zoneID      TEXT,
  sortIndex   INTEGER,
  description TEXT,
  latitude    REAL,
  longitude   REAL,
  radiusM     REAL,
  PRIMARY KEY (accountID, zoneID)
);
`

	default:
		return fmt.Errorf("unsupported database type: %s", s.Driver)
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
