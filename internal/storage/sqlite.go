package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tripplanner/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface on a local SQLite database.
// Structured plan fields (interests, itinerary) are stored as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS plans (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	days        INTEGER NOT NULL,
	interests   TEXT NOT NULL DEFAULT '[]',
	summary     TEXT NOT NULL DEFAULT '',
	itinerary   TEXT NOT NULL DEFAULT '[]',
	source      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS destinations (
	name         TEXT NOT NULL,
	country      TEXT NOT NULL,
	display_name TEXT NOT NULL,
	type         TEXT NOT NULL,
	popularity   INTEGER NOT NULL,
	PRIMARY KEY (name, country)
);
`

// NewSQLiteStore opens (and if necessary creates) a SQLite database at the
// configured connection string.
func NewSQLiteStore(config Config) (*SQLiteStore, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SavePlan stores or replaces a trip plan.
func (s *SQLiteStore) SavePlan(ctx context.Context, plan *models.TripPlan) error {
	interests, itinerary, err := encodePlanColumns(plan)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (id, destination, country, days, interests, summary, itinerary, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			destination = excluded.destination,
			country     = excluded.country,
			days        = excluded.days,
			interests   = excluded.interests,
			summary     = excluded.summary,
			itinerary   = excluded.itinerary,
			source      = excluded.source,
			created_at  = excluded.created_at`,
		plan.ID, plan.Destination, plan.Country, plan.Days,
		interests, plan.Summary, itinerary, plan.Source, plan.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by its ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, destination, country, days, interests, summary, itinerary, source, created_at
		FROM plans WHERE id = ?`, id)

	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns all stored plans, newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, destination, country, days, interests, summary, itinerary, source, created_at
		FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.TripPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan by its ID.
func (s *SQLiteStore) DeletePlan(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Destinations returns the persisted destination catalog.
func (s *SQLiteStore) Destinations(ctx context.Context) ([]models.Destination, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, country, display_name, type, popularity
		FROM destinations ORDER BY popularity DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get destinations: %w", err)
	}
	defer rows.Close()

	var destinations []models.Destination
	for rows.Next() {
		var d models.Destination
		var destType string
		if err := rows.Scan(&d.Name, &d.Country, &d.DisplayName, &destType, &d.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		d.Type = models.DestinationType(destType)
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

// SeedDestinations replaces the persisted destination catalog.
func (s *SQLiteStore) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM destinations`); err != nil {
		return fmt.Errorf("failed to clear destinations: %w", err)
	}

	for _, d := range destinations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO destinations (name, country, display_name, type, popularity)
			VALUES (?, ?, ?, ?, ?)`,
			d.Name, d.Country, d.DisplayName, string(d.Type), d.Popularity); err != nil {
			return fmt.Errorf("failed to insert destination %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.TripPlan, error) {
	var plan models.TripPlan
	var interests, itinerary string
	var createdAt time.Time

	if err := row.Scan(&plan.ID, &plan.Destination, &plan.Country, &plan.Days,
		&interests, &plan.Summary, &itinerary, &plan.Source, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(interests), &plan.Interests); err != nil {
		return nil, fmt.Errorf("corrupt interests column: %w", err)
	}
	if err := json.Unmarshal([]byte(itinerary), &plan.Itinerary); err != nil {
		return nil, fmt.Errorf("corrupt itinerary column: %w", err)
	}
	plan.CreatedAt = createdAt
	return &plan, nil
}

func encodePlanColumns(plan *models.TripPlan) (interests string, itinerary string, err error) {
	interestsRaw, err := json.Marshal(plan.Interests)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode interests: %w", err)
	}
	itineraryRaw, err := json.Marshal(plan.Itinerary)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode itinerary: %w", err)
	}
	return string(interestsRaw), string(itineraryRaw), nil
}
