// Package memory provides an in-process domain.RecordStore backed by a fixed
// snapshot, used by tests and by STORE_DRIVER=memory.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
)

// Seed is the on-disk layout of STORE_SEED_FILE.
type Seed struct {
	Inspections []domain.InspectionRecord `json:"inspections"`
	Places      []domain.PlaceRecord      `json:"places"`
}

// Store implements domain.RecordStore over an immutable snapshot.
type Store struct {
	inspections []domain.InspectionRecord
	places      []domain.PlaceRecord
}

// New copies the given records into a store, ordered by primary key.
func New(inspections []domain.InspectionRecord, places []domain.PlaceRecord) *Store {
	s := &Store{
		inspections: slices.Clone(inspections),
		places:      slices.Clone(places),
	}
	slices.SortFunc(s.inspections, func(a, b domain.InspectionRecord) int {
		return cmp.Compare(a.PermitNumber, b.PermitNumber)
	})
	slices.SortFunc(s.places, func(a, b domain.PlaceRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return s
}

// Load reads a JSON seed file. An empty path yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		return New(nil, nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	store := New(seed.Inspections, seed.Places)
	if err := store.checkKeys(); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return store, nil
}

// checkKeys reports the first repeated primary key. Records are already sorted.
func (s *Store) checkKeys() error {
	for i := 1; i < len(s.inspections); i++ {
		if k := s.inspections[i].PermitNumber; k == s.inspections[i-1].PermitNumber {
			return fmt.Errorf("duplicate permit_number %d", k)
		}
	}
	for i := 1; i < len(s.places); i++ {
		if k := s.places[i].ID; k == s.places[i-1].ID {
			return fmt.Errorf("duplicate Id %d", k)
		}
	}
	return nil
}

func (s *Store) ListInspections(context.Context) ([]domain.InspectionRecord, error) {
	return filter(s.inspections, func(domain.InspectionRecord) bool { return true }), nil
}

func (s *Store) ListInspectionsByGrade(_ context.Context, grade string) ([]domain.InspectionRecord, error) {
	return filter(s.inspections, func(r domain.InspectionRecord) bool { return r.GradeRecent == grade }), nil
}

func (s *Store) ListPlaces(context.Context) ([]domain.PlaceRecord, error) {
	return filter(s.places, func(domain.PlaceRecord) bool { return true }), nil
}

func (s *Store) ListPlacesByState(_ context.Context, state string) ([]domain.PlaceRecord, error) {
	return filter(s.places, func(r domain.PlaceRecord) bool { return r.State == state }), nil
}

func (s *Store) Ping(context.Context) error { return nil }

// filter returns a fresh slice so callers cannot alter the snapshot.
func filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
