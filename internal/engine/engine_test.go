package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croplands/parcel-recon/internal/entity"
)

// memGateway keeps the snapshot in memory and counts saves.
type memGateway struct {
	snap  entity.Snapshot
	ok    bool
	saves int
}

func (g *memGateway) Save(_ context.Context, snap entity.Snapshot) error {
	g.snap = snap
	g.ok = true
	g.saves++
	return nil
}

func (g *memGateway) Load(_ context.Context) (entity.Snapshot, bool, error) {
	return g.snap, g.ok, nil
}

func (g *memGateway) Clear(_ context.Context) error {
	g.snap = entity.Snapshot{}
	g.ok = false
	return nil
}

func (g *memGateway) Close() error { return nil }

func rawParcel(id string, acres float64) entity.RawParcel {
	return entity.RawParcel{
		ID:               id,
		DocumentNumber:   "DOC-" + id,
		JurisdictionCode: "06019",
		SaleDate:         "2026-03-14",
		SaleAmount:       450000,
		AreaAcres:        acres,
		Longitude:        -119.78,
		Latitude:         36.74,
	}
}

func TestAddParcel_NewParcelStoredAndPersisted(t *testing.T) {
	gw := &memGateway{}
	e := New(gw, nil)

	added, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	assert.True(t, added)

	got := e.Parcels()
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, 40.00, got[0].Area)
	assert.Equal(t, 450000/40.00, got[0].PricePerArea)
	assert.Empty(t, got[0].Crops, "no profile yet")
	assert.Equal(t, 1, gw.saves)
}

func TestAddParcel_DuplicateIsNoOp(t *testing.T) {
	gw := &memGateway{}
	e := New(gw, nil)

	added, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	require.True(t, added)

	added, err = e.AddParcel(context.Background(), rawParcel("A", 99.00))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, e.Parcels(), 1)
	assert.Equal(t, 1, gw.saves, "duplicate does not persist")
}

func TestAddParcel_RejectedJurisdictionNotStoredNotSeen(t *testing.T) {
	gw := &memGateway{}
	e := New(gw, nil)

	raw := rawParcel("A", 40.00)
	raw.JurisdictionCode = "48201"
	added, err := e.AddParcel(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, e.Parcels())
	assert.Zero(t, gw.saves)

	// Rejection does not poison the dedup set; the same id from an allowed
	// county is still new.
	added, err = e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	assert.True(t, added)
}

func TestAddParcel_SqftFallbackWhenAcresMissing(t *testing.T) {
	e := New(&memGateway{}, nil)

	raw := rawParcel("A", 0)
	raw.AreaSqft = 87120 // 2 acres
	_, err := e.AddParcel(context.Background(), raw)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, e.Parcels()[0].Area, 1e-9)
}

func TestAddParcel_BackfilledFromExistingProfile(t *testing.T) {
	e := New(&memGateway{}, nil)

	// Profile arrives before any parcel with that area exists.
	_, err := e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     10.00,
		Entries: []entity.CropEntry{{Name: "Cotton", Acres: 9.5}},
	})
	require.NoError(t, err)

	// A later parcel within tolerance picks the profile up at insertion.
	_, err = e.AddParcel(context.Background(), rawParcel("B", 9.90))
	require.NoError(t, err)

	got := e.Parcels()
	require.Len(t, got, 1)
	require.Len(t, got[0].Crops, 1)
	assert.Equal(t, "Cotton", got[0].Crops[0].Name)
}

func TestApplyProfile_BackfillsStoredParcels(t *testing.T) {
	e := New(&memGateway{}, nil)

	_, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	assert.Empty(t, e.Parcels()[0].Crops)

	updated, err := e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     40.10,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got := e.Parcels()[0]
	require.Len(t, got.Crops, 1)
	assert.Equal(t, entity.CropEntry{Name: "Almonds", Acres: 38.5}, got.Crops[0])
}

func TestApplyProfile_ToleranceBoundaryDoesNotMatch(t *testing.T) {
	e := New(&memGateway{}, nil)

	_, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)

	updated, err := e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     40.15,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}},
	})
	require.NoError(t, err)
	assert.Zero(t, updated, "difference of exactly 0.15 must not match")
	assert.Empty(t, e.Parcels()[0].Crops)
}

func TestApplyProfile_Idempotent(t *testing.T) {
	e := New(&memGateway{}, nil)
	_, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)

	prof := entity.CropProfile{
		Key:     40.10,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}},
	}
	_, err = e.ApplyProfile(context.Background(), prof)
	require.NoError(t, err)
	first := e.Parcels()[0].Crops

	_, err = e.ApplyProfile(context.Background(), prof)
	require.NoError(t, err)
	assert.Equal(t, first, e.Parcels()[0].Crops)
}

func TestApplyProfile_LastAppliedWins(t *testing.T) {
	e := New(&memGateway{}, nil)
	_, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)

	_, err = e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     40.05,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}, {Name: "Fallow", Acres: 1.5}},
	})
	require.NoError(t, err)

	_, err = e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     39.95,
		Entries: []entity.CropEntry{{Name: "Grapes", Acres: 39.0}},
	})
	require.NoError(t, err)

	got := e.Parcels()[0].Crops
	require.Len(t, got, 1, "full replace, not merge")
	assert.Equal(t, "Grapes", got[0].Name)
}

func TestApplyProfile_MultipleParcelsMatchOneProfile(t *testing.T) {
	e := New(&memGateway{}, nil)
	_, _ = e.AddParcel(context.Background(), rawParcel("A", 40.00))
	_, _ = e.AddParcel(context.Background(), rawParcel("B", 40.05))
	_, _ = e.AddParcel(context.Background(), rawParcel("C", 55.00))

	updated, err := e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     40.10,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
}

func TestClear_ResetsEverything(t *testing.T) {
	gw := &memGateway{}
	e := New(gw, nil)
	_, _ = e.AddParcel(context.Background(), rawParcel("A", 40.00))
	_, _ = e.ApplyProfile(context.Background(), entity.CropProfile{Key: 40.10})

	require.NoError(t, e.Clear(context.Background()))

	parcels, profiles := e.Counts()
	assert.Zero(t, parcels)
	assert.Zero(t, profiles)
	_, ok, err := gw.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "persisted snapshot removed")

	// Ids are reusable after an explicit clear.
	added, err := e.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	assert.True(t, added)
}

func TestRehydrate_RoundTrip(t *testing.T) {
	gw := &memGateway{}
	e := New(gw, nil)
	_, _ = e.AddParcel(context.Background(), rawParcel("A", 40.00))
	_, _ = e.ApplyProfile(context.Background(), entity.CropProfile{
		Key:     40.10,
		Entries: []entity.CropEntry{{Name: "Almonds", Acres: 38.5}},
	})

	restarted := New(gw, nil)
	require.NoError(t, restarted.Rehydrate(context.Background()))

	parcels, profiles := restarted.Counts()
	assert.Equal(t, 1, parcels)
	assert.Equal(t, 1, profiles)

	// Dedup survives the restart.
	added, err := restarted.AddParcel(context.Background(), rawParcel("A", 40.00))
	require.NoError(t, err)
	assert.False(t, added)
}
