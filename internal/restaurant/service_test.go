package restaurant

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// memStore is an in-memory Store used to exercise the service without disk.
// failNext makes the next mutation fail once, to test write-through rollback.
type memStore struct {
	nextID   int64
	records  []Record
	failNext bool
}

func newMemStore() *memStore { return &memStore{nextID: 1} }

func (m *memStore) LoadAll(_ context.Context) ([]Record, error) {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Insert(_ context.Context, rec *Record) error {
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, *rec)
	return nil
}

func (m *memStore) Update(_ context.Context, rec Record) error {
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = rec
			return nil
		}
	}
	return fmt.Errorf("id %d not stored", rec.ID)
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("id %d not stored", id)
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := NewService(context.Background(), store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, name, location string) Record {
	t.Helper()
	rec, err := svc.Create(context.Background(), name, location, nil, nil)
	if err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return rec
}

func TestCreateAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := mustCreate(t, svc, "Oqtepa Lavash", "Chilonzor")
	second := mustCreate(t, svc, "Afsona", "Shota Rustaveli street")

	if first.ID == 0 || second.ID == 0 {
		t.Fatalf("ids not assigned: %d, %d", first.ID, second.ID)
	}
	if first.ID == second.ID {
		t.Fatalf("duplicate id %d", first.ID)
	}
	if first.Rating != RatingUnrated {
		t.Fatalf("new record rating = %d, want unrated", first.Rating)
	}

	got := svc.List(ctx)
	if len(got) != 2 {
		t.Fatalf("List returned %d records, want 2", len(got))
	}
	if got[0].Name != "Oqtepa Lavash" || got[1].Name != "Afsona" {
		t.Fatalf("insertion order lost: %q, %q", got[0].Name, got[1].Name)
	}
}

func TestCreateTrimsAndValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	landmark := "  next to the metro  "
	rec, err := svc.Create(ctx, "  Bek  ", "  Yunusobod  ", &landmark, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Name != "Bek" || rec.Location != "Yunusobod" {
		t.Fatalf("fields not trimmed: %q, %q", rec.Name, rec.Location)
	}
	if rec.Landmark == nil || *rec.Landmark != "next to the metro" {
		t.Fatalf("landmark = %v", rec.Landmark)
	}

	blank := "   "
	rec2, err := svc.Create(ctx, "Khiva", "Center", nil, &blank)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec2.Notes != nil {
		t.Fatalf("blank notes kept: %q", *rec2.Notes)
	}

	if _, err := svc.Create(ctx, "   ", "Somewhere", nil, nil); !IsValidation(err) {
		t.Fatalf("blank name: err = %v, want ValidationError", err)
	}
	if _, err := svc.Create(ctx, "Somewhere", "   ", nil, nil); !IsValidation(err) {
		t.Fatalf("blank location: err = %v, want ValidationError", err)
	}
}

func TestCreateFailedInsertKeepsRegistryClean(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.failNext = true
	if _, err := svc.Create(ctx, "Doomed", "Nowhere", nil, nil); !IsPersistence(err) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if got := svc.List(ctx); len(got) != 0 {
		t.Fatalf("failed create left %d records", len(got))
	}
}

func TestGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "Afsona", "Center")

	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Afsona" {
		t.Fatalf("Get returned %q", got.Name)
	}

	if _, err := svc.Get(ctx, 999); !IsNotFound(err) {
		t.Fatalf("missing id: err = %v, want NotFoundError", err)
	}
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "Afsona", "Center")

	if err := svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(ctx, rec.ID); !IsNotFound(err) {
		t.Fatalf("second delete: err = %v, want NotFoundError", err)
	}
	if got := svc.List(ctx); len(got) != 0 {
		t.Fatalf("registry not empty after delete: %d", len(got))
	}
}

func TestDeletedIDNeverReassigned(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec := mustCreate(t, svc, "Afsona", "Center")
	if err := svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	next := mustCreate(t, svc, "Bek", "Yunusobod")
	if next.ID == rec.ID {
		t.Fatalf("id %d reassigned after delete", rec.ID)
	}
}

func TestRateOverwrites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "Afsona", "Center")

	if err := svc.Rate(ctx, rec.ID, 3); err != nil {
		t.Fatalf("first rate: %v", err)
	}
	if err := svc.Rate(ctx, rec.ID, 5); err != nil {
		t.Fatalf("second rate: %v", err)
	}

	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Rating != 5 {
		t.Fatalf("rating = %d, want 5 (latest wins)", got.Rating)
	}
}

func TestRateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "Afsona", "Center")

	for _, rating := range []int{0, -1, 6} {
		if err := svc.Rate(ctx, rec.ID, rating); !IsValidation(err) {
			t.Errorf("Rate(%d): err = %v, want ValidationError", rating, err)
		}
	}
	if err := svc.Rate(ctx, 999, 4); !IsNotFound(err) {
		t.Fatalf("missing id: err = %v, want NotFoundError", err)
	}
}

func TestRateFailedUpdateKeepsOldRating(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	rec := mustCreate(t, svc, "Afsona", "Center")

	if err := svc.Rate(ctx, rec.ID, 3); err != nil {
		t.Fatalf("rate: %v", err)
	}
	store.failNext = true
	if err := svc.Rate(ctx, rec.ID, 5); !IsPersistence(err) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	got, _ := svc.Get(ctx, rec.ID)
	if got.Rating != 3 {
		t.Fatalf("rating = %d, want 3 after failed update", got.Rating)
	}
}

func TestRecommend(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", "loc")
	b := mustCreate(t, svc, "B", "loc")
	c := mustCreate(t, svc, "C", "loc")
	mustCreate(t, svc, "Unrated", "loc")

	svc.Rate(ctx, a.ID, 4)
	svc.Rate(ctx, b.ID, 5)
	svc.Rate(ctx, c.ID, 4)

	got := svc.Recommend(ctx, 4, 0)
	if len(got) != 3 {
		t.Fatalf("Recommend returned %d, want 3", len(got))
	}
	if got[0].Name != "B" {
		t.Fatalf("best first: got %q", got[0].Name)
	}
	// Equal ratings keep insertion order.
	if got[1].Name != "A" || got[2].Name != "C" {
		t.Fatalf("tie order: %q then %q", got[1].Name, got[2].Name)
	}
}

func TestRecommendThresholdAndLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	low := mustCreate(t, svc, "Low", "loc")
	mid := mustCreate(t, svc, "Mid", "loc")
	top := mustCreate(t, svc, "Top", "loc")
	svc.Rate(ctx, low.ID, 2)
	svc.Rate(ctx, mid.ID, 4)
	svc.Rate(ctx, top.ID, 5)

	got := svc.Recommend(ctx, 4, 0)
	for _, rec := range got {
		if rec.Rating < 4 {
			t.Fatalf("record %q below threshold: %d", rec.Name, rec.Rating)
		}
	}

	got = svc.Recommend(ctx, 1, 1)
	if len(got) != 1 || got[0].Name != "Top" {
		t.Fatalf("limit 1: got %v", got)
	}
}

func TestRecommendEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "Unrated", "loc")

	if got := svc.Recommend(ctx, 4, 0); len(got) != 0 {
		t.Fatalf("Recommend returned %d, want 0", len(got))
	}
}

func TestServicePicksUpExistingRecords(t *testing.T) {
	store := newMemStore()
	store.records = []Record{
		{ID: 1, Name: "Old", Location: "Town", Rating: 5},
		{ID: 2, Name: "Older", Location: "Town"},
	}
	store.nextID = 3

	svc, err := NewService(context.Background(), store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if got := svc.List(context.Background()); len(got) != 2 {
		t.Fatalf("List returned %d, want 2", len(got))
	}
	if got := svc.Recommend(context.Background(), 4, 0); len(got) != 1 || got[0].Name != "Old" {
		t.Fatalf("Recommend = %v", got)
	}
}
