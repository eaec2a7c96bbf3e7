package restaurant

import "context"

// Store is the persistence collaborator behind the registry. Every call
// commits durably before returning; a crash right after a successful return
// must never lose the mutation. The registry serializes calls, so
// implementations do not need their own locking.
type Store interface {
	// LoadAll returns every stored record in insertion order.
	LoadAll(ctx context.Context) ([]Record, error)
	// Insert persists a new record and assigns rec.ID. Assigned ids are
	// monotonic and never reused, even after deletions.
	Insert(ctx context.Context, rec *Record) error
	// Update overwrites the stored record with the same id.
	Update(ctx context.Context, rec Record) error
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id int64) error
}
