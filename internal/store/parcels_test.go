package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croplands/parcel-recon/internal/entity"
)

func TestParcelStore_SeenAfterAppend(t *testing.T) {
	s := NewParcelStore()
	require.False(t, s.Seen("A"))
	s.Append(entity.Parcel{ID: "A"})
	assert.True(t, s.Seen("A"))
	assert.Equal(t, 1, s.Len())
}

func TestParcelStore_ListPreservesInsertionOrder(t *testing.T) {
	s := NewParcelStore()
	s.Append(entity.Parcel{ID: "A"})
	s.Append(entity.Parcel{ID: "B"})
	s.Append(entity.Parcel{ID: "C"})

	got := s.List()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "B", got[1].ID)
	assert.Equal(t, "C", got[2].ID)
}

func TestParcelStore_ListReturnsCopies(t *testing.T) {
	s := NewParcelStore()
	s.Append(entity.Parcel{ID: "A", Crops: []entity.CropEntry{{Name: "Almonds", Acres: 1}}})

	got := s.List()
	got[0].Crops[0].Name = "mutated"
	got[0].ID = "mutated"

	again := s.List()
	assert.Equal(t, "A", again[0].ID)
	assert.Equal(t, "Almonds", again[0].Crops[0].Name)
}

func TestParcelStore_Mutate(t *testing.T) {
	s := NewParcelStore()
	s.Append(entity.Parcel{ID: "A", Area: 40})
	s.Append(entity.Parcel{ID: "B", Area: 10})

	updated := s.Mutate(func(p *entity.Parcel) bool {
		if p.Area != 40 {
			return false
		}
		p.Crops = []entity.CropEntry{{Name: "Almonds", Acres: 38.5}}
		return true
	})
	assert.Equal(t, 1, updated)
	assert.Equal(t, "Almonds", s.List()[0].Crops[0].Name)
	assert.Empty(t, s.List()[1].Crops)
}

func TestParcelStore_Clear(t *testing.T) {
	s := NewParcelStore()
	s.Append(entity.Parcel{ID: "A"})
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Seen("A"))
}

func TestParcelStore_RestoreKeepsOrphanDedupIDs(t *testing.T) {
	s := NewParcelStore()
	s.Restore([]entity.Parcel{{ID: "A"}}, []string{"A", "gone"})
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Seen("A"))
	assert.True(t, s.Seen("gone"))
}
