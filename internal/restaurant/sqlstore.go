package restaurant

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/restobot/core/database"
)

// SQLStore persists the registry in a relational database through sqlx.
// Both postgres and sqlite are supported; id assignment and bindvar syntax
// are the only driver-specific pieces.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open sqlx connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// LoadAll returns every stored record in insertion order.
func (s *SQLStore) LoadAll(ctx context.Context) ([]Record, error) {
	var out []Record
	query := `SELECT id, name, location, landmark, notes, rating FROM restaurants ORDER BY id`
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select restaurants: %w", err)
	}
	return out, nil
}

// Insert persists a new record; the id comes from the database sequence,
// which never reuses values.
func (s *SQLStore) Insert(ctx context.Context, rec *Record) error {
	if s.db.DriverName() == database.DriverSQLite {
		query := s.db.Rebind(`INSERT INTO restaurants (name, location, landmark, notes, rating) VALUES (?, ?, ?, ?, ?)`)
		res, err := s.db.ExecContext(ctx, query, rec.Name, rec.Location, rec.Landmark, rec.Notes, rec.Rating)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert restaurant id: %w", err)
		}
		rec.ID = id
		return nil
	}

	query := s.db.Rebind(`INSERT INTO restaurants (name, location, landmark, notes, rating) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, query, rec.Name, rec.Location, rec.Landmark, rec.Notes, rec.Rating).Scan(&rec.ID); err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}
	return nil
}

// Update overwrites the stored record with the same id.
func (s *SQLStore) Update(ctx context.Context, rec Record) error {
	query := s.db.Rebind(`UPDATE restaurants SET name = ?, location = ?, landmark = ?, notes = ?, rating = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, rec.Name, rec.Location, rec.Landmark, rec.Notes, rec.Rating, rec.ID); err != nil {
		return fmt.Errorf("update restaurant %d: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the record with the given id.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	query := s.db.Rebind(`DELETE FROM restaurants WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete restaurant %d: %w", id, err)
	}
	return nil
}
