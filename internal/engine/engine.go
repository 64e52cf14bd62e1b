package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/croplands/parcel-recon/constants"
	"github.com/croplands/parcel-recon/internal/admission"
	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
	"github.com/croplands/parcel-recon/internal/snapshot"
	"github.com/croplands/parcel-recon/internal/store"
)

// Engine correlates the two ingest streams: parcel sale records and crop
// profiles keyed by approximate acreage. Both entry points are idempotent
// with respect to replays, so stream ordering does not matter; a profile may
// arrive before, after, or interleaved with the parcels it matches.
//
// All store mutations are serialized behind one mutex; no lock is held across
// snapshot I/O completion boundaries other than the save that commits the
// mutation itself.
type Engine struct {
	mu       sync.Mutex
	parcels  *store.ParcelStore
	profiles *store.ProfileStore
	gateway  snapshot.Gateway
	logger   *slog.Logger
}

func New(gateway snapshot.Gateway, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		parcels:  store.NewParcelStore(),
		profiles: store.NewProfileStore(),
		gateway:  gateway,
		logger:   logger,
	}
}

// Rehydrate loads the persisted snapshot into the stores. Called exactly once
// at process start, before any events are ingested.
func (e *Engine) Rehydrate(ctx context.Context) error {
	snap, ok, err := e.gateway.Load(ctx)
	if err != nil {
		return common.WrapError(err, "load snapshot")
	}
	if !ok {
		e.logger.Info("engine.rehydrate.empty")
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parcels.Restore(snap.Parcels, snap.DedupIDs)
	e.profiles.Restore(snap.Profiles)
	e.logger.Info("engine.rehydrate.ok",
		"parcels", e.parcels.Len(),
		"profiles", e.profiles.Len(),
	)
	return nil
}

// AddParcel admits, deduplicates, and stores one raw parcel event. If a crop
// profile within tolerance of the parcel's area already exists, the crop
// fields are populated at insertion time. Returns whether the parcel counted
// as new. Duplicate ids and rejected jurisdictions are ordinary no-ops.
func (e *Engine) AddParcel(ctx context.Context, raw entity.RawParcel) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.parcels.Seen(raw.ID) {
		e.logger.Info("engine.parcel.duplicate", "parcel_id", raw.ID, "reason", common.ErrDuplicateParcel)
		return false, nil
	}
	if !admission.AdmitLogged(raw, e.logger) {
		return false, nil
	}

	area := raw.PreferredArea()
	p := entity.Parcel{
		ID:               raw.ID,
		DocumentNumber:   raw.DocumentNumber,
		JurisdictionCode: raw.JurisdictionCode,
		SaleDate:         raw.SaleDate,
		SaleAmount:       raw.SaleAmount,
		Area:             area,
		Longitude:        raw.Longitude,
		Latitude:         raw.Latitude,
	}
	if area > 0 && raw.SaleAmount > 0 {
		p.PricePerArea = raw.SaleAmount / area
	}

	if prof, ok := e.profiles.FirstMatch(area); ok {
		p.Crops = append([]entity.CropEntry(nil), prof.Entries...)
		e.logger.Info("engine.parcel.matched",
			"parcel_id", p.ID,
			"area", area,
			"profile_key", prof.Key,
		)
	}

	e.parcels.Append(p)
	if err := e.persistLocked(ctx); err != nil {
		return true, err
	}
	e.logger.Info("engine.parcel.added",
		"parcel_id", p.ID,
		"county", constants.CountyName(p.JurisdictionCode),
		"total", e.parcels.Len(),
	)
	return true, nil
}

// ApplyProfile stores a crop profile under its quantized key and backfills
// every stored parcel whose area is within tolerance of the key. Crop fields
// are fully replaced, not merged, so reapplying the same profile is a no-op
// beyond wasted work. Returns how many parcels were updated.
func (e *Engine) ApplyProfile(ctx context.Context, prof entity.CropProfile) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prof.Key = entity.Quantize(prof.Key)
	e.profiles.Put(prof)

	updated := e.parcels.Mutate(func(p *entity.Parcel) bool {
		if !store.WithinTolerance(p.Area, prof.Key) {
			return false
		}
		p.Crops = append([]entity.CropEntry(nil), prof.Entries...)
		return true
	})

	if updated > 0 {
		if err := e.persistLocked(ctx); err != nil {
			return updated, err
		}
	}
	e.logger.Info("engine.profile.applied",
		"key", prof.Key,
		"entries", len(prof.Entries),
		"backfilled", updated,
	)
	return updated, nil
}

// Parcels returns a copy of the stored parcels in insertion order.
func (e *Engine) Parcels() []entity.Parcel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parcels.List()
}

// Counts returns the current store sizes.
func (e *Engine) Counts() (parcels, profiles int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parcels.Len(), e.profiles.Len()
}

// Clear drops all parcels, the dedup set, all profiles, and the persisted
// snapshot.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parcels.Clear()
	e.profiles.Clear()
	if err := e.gateway.Clear(ctx); err != nil {
		return common.WrapError(err, "clear snapshot")
	}
	e.logger.Info("engine.cleared")
	return nil
}

func (e *Engine) persistLocked(ctx context.Context) error {
	snap := entity.Snapshot{
		Parcels:  e.parcels.List(),
		DedupIDs: e.parcels.DedupIDs(),
		Profiles: e.profiles.Map(),
	}
	if err := e.gateway.Save(ctx, snap); err != nil {
		e.logger.Error("engine.persist.failed", "error", err)
		return common.WrapError(err, "save snapshot")
	}
	return nil
}
