package restaurant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"log/slog"

	"github.com/m3rciful/restobot/core/logger"
)

// nearDuplicateDistance is the maximal edit distance at which two restaurant
// names are reported as likely duplicates.
const nearDuplicateDistance = 2

// Service owns the restaurant registry. All records are held in memory and
// every mutation is written through the Store before the in-memory state
// changes, so a success response is always durable. One mutex serializes
// mutations across users.
type Service struct {
	mu      sync.RWMutex
	store   Store
	records []Record
}

// NewService loads the full registry from the store.
func NewService(ctx context.Context, store Store) (*Service, error) {
	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	logger.Info(ctx, "service.registry", "registry.loaded",
		slog.Int("count", len(records)),
	)
	return &Service{store: store, records: records}, nil
}

// Create validates and persists a new restaurant, returning the stored record.
func (s *Service) Create(ctx context.Context, name, location string, landmark, notes *string) (Record, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" {
		return Record{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if location == "" {
		return Record{}, &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	landmark = trimOptional(landmark)
	notes = trimOptional(notes)

	s.mu.Lock()
	defer s.mu.Unlock()

	if near := s.nearDuplicateLocked(name); near != "" {
		logger.Warn(ctx, "service.registry", "registry.near_duplicate",
			slog.String("restaurant", name),
			slog.String("existing", near),
		)
	}

	rec := Record{
		Name:     name,
		Location: location,
		Landmark: landmark,
		Notes:    notes,
		Rating:   RatingUnrated,
	}
	if err := s.store.Insert(ctx, &rec); err != nil {
		return Record{}, &PersistenceError{Op: "insert", Err: err}
	}
	s.records = append(s.records, rec)

	logger.Info(ctx, "service.registry", "registry.created",
		slog.Int64("restaurant_id", rec.ID),
		slog.String("restaurant", rec.Name),
	)
	return rec, nil
}

// List returns all records in insertion order.
func (s *Service) List(_ context.Context) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id.
func (s *Service) Get(_ context.Context, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, &NotFoundError{ID: id}
}

// Delete removes the record with the given id. Deleting an id twice yields
// one success and one NotFoundError; ids are never reassigned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, rec := range s.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)

	logger.Info(ctx, "service.registry", "registry.deleted",
		slog.Int64("restaurant_id", id),
	)
	return nil
}

// Rate overwrites the rating of the record with the given id. Each rating
// replaces the previous one; there is no averaging or history.
func (s *Service) Rate(ctx context.Context, id int64, rating int) error {
	if rating < RatingMin || rating > RatingMax {
		return &ValidationError{Field: "rating", Reason: "must be within [1,5]"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, rec := range s.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{ID: id}
	}

	updated := s.records[idx]
	updated.Rating = rating
	if err := s.store.Update(ctx, updated); err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	s.records[idx] = updated

	logger.Info(ctx, "service.registry", "registry.rated",
		slog.Int64("restaurant_id", id),
		slog.Int("rating", rating),
	)
	return nil
}

// Recommend returns records rated at least minRating, best first, ties broken
// by insertion order. limit <= 0 means unbounded.
func (s *Service) Recommend(_ context.Context, minRating, limit int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.Rating >= minRating && rec.Rated() {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Service) nearDuplicateLocked(name string) string {
	folded := strings.ToLower(name)
	for _, rec := range s.records {
		existing := strings.ToLower(rec.Name)
		if levenshtein.ComputeDistance(folded, existing) <= nearDuplicateDistance {
			return rec.Name
		}
	}
	return ""
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
