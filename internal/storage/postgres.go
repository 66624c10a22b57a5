package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tripplanner/internal/models"
)

// PostgresStore implements the Store interface using PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS plans (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	days        INTEGER NOT NULL,
	interests   JSONB NOT NULL DEFAULT '[]',
	summary     TEXT NOT NULL DEFAULT '',
	itinerary   JSONB NOT NULL DEFAULT '[]',
	source      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
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

// NewPostgresStore creates a PostgreSQL-backed store and ensures the schema
// exists.
func NewPostgresStore(config Config) (*PostgresStore, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	pool, err := pgxpool.New(context.Background(), config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// SavePlan stores or replaces a trip plan.
func (p *PostgresStore) SavePlan(ctx context.Context, plan *models.TripPlan) error {
	interests, itinerary, err := encodePlanColumns(plan)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO plans (id, destination, country, days, interests, summary, itinerary, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			destination = EXCLUDED.destination,
			country     = EXCLUDED.country,
			days        = EXCLUDED.days,
			interests   = EXCLUDED.interests,
			summary     = EXCLUDED.summary,
			itinerary   = EXCLUDED.itinerary,
			source      = EXCLUDED.source,
			created_at  = EXCLUDED.created_at`,
		plan.ID, plan.Destination, plan.Country, plan.Days,
		interests, plan.Summary, itinerary, plan.Source, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by its ID.
func (p *PostgresStore) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, destination, country, days, interests, summary, itinerary, source, created_at
		FROM plans WHERE id = $1`, id)

	plan, err := scanPgPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns all stored plans, newest first.
func (p *PostgresStore) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, destination, country, days, interests, summary, itinerary, source, created_at
		FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.TripPlan
	for rows.Next() {
		plan, err := scanPgPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan by its ID.
func (p *PostgresStore) DeletePlan(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Destinations returns the persisted destination catalog.
func (p *PostgresStore) Destinations(ctx context.Context) ([]models.Destination, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, country, display_name, type, popularity
		FROM destinations ORDER BY popularity DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get destinations: %w", err)
	}
	defer rows.Close()

	var destinations []models.Destination
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.Name, &d.Country, &d.DisplayName, &d.Type, &d.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

// SeedDestinations replaces the persisted destination catalog.
func (p *PostgresStore) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM destinations`); err != nil {
		return fmt.Errorf("failed to clear destinations: %w", err)
	}

	for _, d := range destinations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO destinations (name, country, display_name, type, popularity)
			VALUES ($1, $2, $3, $4, $5)`,
			d.Name, d.Country, d.DisplayName, d.Type, d.Popularity); err != nil {
			return fmt.Errorf("failed to insert destination %s: %w", d.Name, err)
		}
	}
	return tx.Commit(ctx)
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanPgPlan(row pgx.Row) (*models.TripPlan, error) {
	var plan models.TripPlan
	var interests, itinerary []byte

	if err := row.Scan(&plan.ID, &plan.Destination, &plan.Country, &plan.Days,
		&interests, &plan.Summary, &itinerary, &plan.Source, &plan.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(interests, &plan.Interests); err != nil {
		return nil, fmt.Errorf("corrupt interests column: %w", err)
	}
	if err := json.Unmarshal(itinerary, &plan.Itinerary); err != nil {
		return nil, fmt.Errorf("corrupt itinerary column: %w", err)
	}
	return &plan, nil
}
