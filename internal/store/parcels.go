package store

import (
	"github.com/croplands/parcel-recon/internal/entity"
)

// ParcelStore is the deduplicated, insertion-ordered collection of reconciled
// parcels plus the set of parcel ids ever seen. It is not safe for concurrent
// use; the correlation engine serializes access.
type ParcelStore struct {
	parcels []entity.Parcel
	seen    map[string]struct{}
}

func NewParcelStore() *ParcelStore {
	return &ParcelStore{seen: make(map[string]struct{})}
}

// Seen reports whether a parcel id has already been observed.
func (s *ParcelStore) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Append marks the parcel id as seen and appends the record.
func (s *ParcelStore) Append(p entity.Parcel) {
	s.seen[p.ID] = struct{}{}
	s.parcels = append(s.parcels, p)
}

// Len returns the number of stored parcels.
func (s *ParcelStore) Len() int {
	return len(s.parcels)
}

// List returns a copy of the stored parcels in insertion order.
func (s *ParcelStore) List() []entity.Parcel {
	out := make([]entity.Parcel, len(s.parcels))
	copy(out, s.parcels)
	for i := range out {
		out[i].Crops = append([]entity.CropEntry(nil), out[i].Crops...)
	}
	return out
}

// Mutate applies fn to every stored parcel in insertion order and returns the
// number of parcels for which fn reported a change.
func (s *ParcelStore) Mutate(fn func(p *entity.Parcel) bool) int {
	updated := 0
	for i := range s.parcels {
		if fn(&s.parcels[i]) {
			updated++
		}
	}
	return updated
}

// DedupIDs returns the seen-id set. The order is not significant; membership
// is what the snapshot preserves.
func (s *ParcelStore) DedupIDs() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	return out
}

// Clear drops all parcels and the dedup set.
func (s *ParcelStore) Clear() {
	s.parcels = nil
	s.seen = make(map[string]struct{})
}

// Restore replaces the store contents from a snapshot.
func (s *ParcelStore) Restore(parcels []entity.Parcel, dedupIDs []string) {
	s.Clear()
	for _, p := range parcels {
		s.parcels = append(s.parcels, p)
		s.seen[p.ID] = struct{}{}
	}
	// Dedup ids may outlive their parcels only if upstream state diverged;
	// keep them anyway so replays stay no-ops.
	for _, id := range dedupIDs {
		s.seen[id] = struct{}{}
	}
}
