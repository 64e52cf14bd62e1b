package store

import (
	"math"
	"sort"

	"github.com/croplands/parcel-recon/internal/entity"
)

// MatchTolerance is the maximum absolute difference between a parcel's area
// and a profile key for the two to be considered the same field. The boundary
// itself does not match (strict less-than).
const MatchTolerance = 0.15

// toleranceSlack absorbs float noise right at the boundary so that a
// difference of exactly 0.15 never matches even when the subtraction lands a
// few ulps under it.
const toleranceSlack = 1e-9

// WithinTolerance reports whether |a-b| < MatchTolerance, treating values
// within float noise of the boundary as the boundary.
func WithinTolerance(a, b float64) bool {
	return MatchTolerance-math.Abs(a-b) > toleranceSlack
}

// ProfileStore maps quantized area keys to the most recent crop profile seen
// for that key. Enumeration order for matching is insertion order of keys;
// a later profile for an existing key overwrites in place without changing
// that order. Not safe for concurrent use.
type ProfileStore struct {
	order []string
	byKey map[string]entity.CropProfile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{byKey: make(map[string]entity.CropProfile)}
}

// Put stores the profile under its quantized key, overwriting any prior
// profile for that key.
func (s *ProfileStore) Put(p entity.CropProfile) {
	p.Key = entity.Quantize(p.Key)
	ks := entity.KeyString(p.Key)
	if _, ok := s.byKey[ks]; !ok {
		s.order = append(s.order, ks)
	}
	s.byKey[ks] = p
}

// FirstMatch returns the first stored profile, in insertion order, whose key
// is within tolerance of area. No nearest-match guarantee.
func (s *ProfileStore) FirstMatch(area float64) (entity.CropProfile, bool) {
	for _, ks := range s.order {
		p := s.byKey[ks]
		if WithinTolerance(area, p.Key) {
			return p, true
		}
	}
	return entity.CropProfile{}, false
}

// Len returns the number of stored profiles.
func (s *ProfileStore) Len() int {
	return len(s.order)
}

// Map returns a copy of the store keyed by quantized key string, the layout
// the snapshot persists.
func (s *ProfileStore) Map() map[string]entity.CropProfile {
	out := make(map[string]entity.CropProfile, len(s.byKey))
	for k, v := range s.byKey {
		v.Entries = append([]entity.CropEntry(nil), v.Entries...)
		out[k] = v
	}
	return out
}

// Clear drops all profiles.
func (s *ProfileStore) Clear() {
	s.order = nil
	s.byKey = make(map[string]entity.CropProfile)
}

// Restore replaces the store contents from a snapshot. The snapshot does not
// record insertion order, so keys are enumerated in sorted order after a
// restart to keep matching deterministic.
func (s *ProfileStore) Restore(profiles map[string]entity.CropProfile) {
	s.Clear()
	keys := make([]string, 0, len(profiles))
	for k := range profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.order = append(s.order, k)
		s.byKey[k] = profiles[k]
	}
}
