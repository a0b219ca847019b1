package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SarkarTanzil/OpenGTS/pkg/geozone"
)

// Geozones loads the account's zone list ordered by sort index. The slice
// feeds a geozone.Matcher, which checks zones in this order.
func (s *Store) Geozones(ctx context.Context, accountID string) ([]geozone.Zone, error) {
	query := s.rebind(`
SELECT accountID, zoneID, sortIndex, description, latitude, longitude, radiusM
FROM geozones WHERE accountID = ? ORDER BY sortIndex, zoneID`)

	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list geozones for %s: %w", accountID, err)
	}
	defer rows.Close()

	var zones []geozone.Zone
	for rows.Next() {
		var (
			z    geozone.Zone
			desc sql.NullString
		)
		if err := rows.Scan(&z.AccountID, &z.ZoneID, &z.Index, &desc,
			&z.Center.Lat, &z.Center.Lon, &z.RadiusM); err != nil {
			return nil, fmt.Errorf("scan geozone: %w", err)
		}
		z.Description = desc.String
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geozones: %w", err)
	}
	return zones, nil
}

// SaveGeozone upserts one zone row.
func (s *Store) SaveGeozone(ctx context.Context, z geozone.Zone) error {
	query := s.rebind(`
INSERT INTO geozones (accountID, zoneID, sortIndex, description, latitude, longitude, radiusM)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT (accountID, zoneID) DO UPDATE SET
  sortIndex = EXCLUDED.sortIndex,
  description = EXCLUDED.description,
  latitude = EXCLUDED.latitude,
  longitude = EXCLUDED.longitude,
  radiusM = EXCLUDED.radiusM`)
	_, err := s.DB.ExecContext(ctx, query,
		z.AccountID, z.ZoneID, z.Index, z.Description,
		z.Center.Lat, z.Center.Lon, z.RadiusM)
	if err != nil {
		return fmt.Errorf("save geozone %s/%s: %w", z.AccountID, z.ZoneID, err)
	}
	return nil
}
