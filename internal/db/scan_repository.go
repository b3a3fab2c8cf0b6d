package db

import (
	"context"
	"fmt"
	"time"
)

// ScanRecord is one persisted scan request and its outcome.
type ScanRecord struct {
	ID            int       `json:"id"`
	ClientID      string    `json:"client_id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	RadiusKm      float64   `json:"radius_km"`
	AircraftCount int       `json:"aircraft_count"`
	Provider      string    `json:"provider"`
	ErrMessage    string    `json:"err_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScanRepository provides methods for scan history database operations.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new scan repository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Insert records one completed scan.
func (r *ScanRepository) Insert(ctx context.Context, rec *ScanRecord) error {
	query := `
		INSERT INTO scans (client_id, latitude, longitude, radius_km,
		                   aircraft_count, provider, err_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		rec.ClientID,
		rec.Latitude,
		rec.Longitude,
		rec.RadiusKm,
		rec.AircraftCount,
		rec.Provider,
		rec.ErrMessage,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert scan record: %w", err)
	}

	return nil
}

// RecentByClient returns a client's most recent scans, newest first.
func (r *ScanRepository) RecentByClient(ctx context.Context, clientID string, limit int) ([]ScanRecord, error) {
	query := `
		SELECT id, client_id, latitude, longitude, radius_km,
		       aircraft_count, provider, err_message, created_at
		FROM scans
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ClientID,
			&rec.Latitude,
			&rec.Longitude,
			&rec.RadiusKm,
			&rec.AircraftCount,
			&rec.Provider,
			&rec.ErrMessage,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountSince returns the number of scans recorded after the cutoff.
func (r *ScanRepository) CountSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scans WHERE created_at > $1`,
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return count, nil
}
