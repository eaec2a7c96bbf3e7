package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fileDocument is the on-disk layout of the flat-file backend. NextID is
// persisted so ids survive restarts and are never handed out twice.
type fileDocument struct {
	NextID      int64    `json:"next_id"`
	Restaurants []Record `json:"restaurants"`
}

// FileStore keeps the registry in a single JSON file. Every mutation rewrites
// the whole document through a temp file followed by rename, so a crash
// mid-write leaves the previous state intact.
type FileStore struct {
	path string
	doc  fileDocument
}

// NewFileStore opens (or lazily creates) the JSON data file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, doc: fileDocument{NextID: 1}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.doc.NextID < 1 {
		s.doc.NextID = 1
	}
	// Guard against hand-edited files: never assign below an existing id.
	for _, rec := range s.doc.Restaurants {
		if rec.ID >= s.doc.NextID {
			s.doc.NextID = rec.ID + 1
		}
	}
	return s, nil
}

// LoadAll returns every stored record in insertion order.
func (s *FileStore) LoadAll(_ context.Context) ([]Record, error) {
	out := make([]Record, len(s.doc.Restaurants))
	copy(out, s.doc.Restaurants)
	return out, nil
}

// Insert assigns the next id and persists the record.
func (s *FileStore) Insert(_ context.Context, rec *Record) error {
	rec.ID = s.doc.NextID
	s.doc.NextID++
	s.doc.Restaurants = append(s.doc.Restaurants, *rec)
	if err := s.flush(); err != nil {
		// roll back the in-memory copy so a retry starts clean
		s.doc.Restaurants = s.doc.Restaurants[:len(s.doc.Restaurants)-1]
		s.doc.NextID--
		rec.ID = 0
		return err
	}
	return nil
}

// Update overwrites the stored record with the same id.
func (s *FileStore) Update(_ context.Context, rec Record) error {
	for i := range s.doc.Restaurants {
		if s.doc.Restaurants[i].ID == rec.ID {
			prev := s.doc.Restaurants[i]
			s.doc.Restaurants[i] = rec
			if err := s.flush(); err != nil {
				s.doc.Restaurants[i] = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("update: id %d not stored", rec.ID)
}

// Delete removes the record with the given id.
func (s *FileStore) Delete(_ context.Context, id int64) error {
	for i := range s.doc.Restaurants {
		if s.doc.Restaurants[i].ID == id {
			prev := append([]Record(nil), s.doc.Restaurants...)
			s.doc.Restaurants = append(s.doc.Restaurants[:i], s.doc.Restaurants[i+1:]...)
			if err := s.flush(); err != nil {
				s.doc.Restaurants = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("delete: id %d not stored", id)
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".restaurants-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
