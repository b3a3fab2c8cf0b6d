// Package db provides scan history and account persistence.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/jetscan-audio/jetscan/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldData removes scan records older than maxAge.
// Should be called periodically to prevent unbounded growth.
func (db *DB) CleanupOldData(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	if _, err := db.ExecContext(ctx,
		`DELETE FROM scans WHERE created_at < $1`,
		cutoff,
	); err != nil {
		return fmt.Errorf("failed to delete old scans: %w", err)
	}

	return nil
}

// RunCleanupLoop deletes old scan records on a fixed interval until the
// context is cancelled. Failures are logged and the loop keeps running;
// a missed cleanup just means the next tick deletes more.
func (db *DB) RunCleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.CleanupOldData(ctx, maxAge); err != nil {
				log.Printf("Scan history cleanup failed: %v", err)
			}
		}
	}
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var scanCount int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scans`,
	).Scan(&scanCount)
	if err != nil {
		return nil, err
	}
	stats["scan_records"] = scanCount

	var recentCount int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scans WHERE created_at > $1`,
		time.Now().UTC().Add(-24*time.Hour),
	).Scan(&recentCount)
	if err != nil {
		return nil, err
	}
	stats["scans_last_24h"] = recentCount

	var accountCount int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE is_active = TRUE`,
	).Scan(&accountCount)
	if err != nil {
		return nil, err
	}
	stats["active_accounts"] = accountCount

	return stats, nil
}
