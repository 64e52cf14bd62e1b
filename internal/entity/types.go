package entity

import (
	"math"
	"strconv"
	"time"
)

// MaxCropEntries is the number of ranked land-use categories kept per parcel.
const MaxCropEntries = 3

// SqftPerAcre converts the fallback square-footage measure to acres.
const SqftPerAcre = 43560.0

// CropEntry is one ranked land-use category and its acreage.
type CropEntry struct {
	Name  string  `json:"name"`
	Acres float64 `json:"acres"`
}

// Parcel is one reconciled sale record. Crop fields start empty and are
// populated (and later overwritten, last-applied-wins) by profile backfills.
type Parcel struct {
	ID               string      `json:"id"`
	DocumentNumber   string      `json:"document_number"`
	JurisdictionCode string      `json:"jurisdiction_code"`
	SaleDate         string      `json:"sale_date"`
	SaleAmount       float64     `json:"sale_amount"`
	Area             float64     `json:"area"`
	PricePerArea     float64     `json:"price_per_area"`
	Longitude        float64     `json:"longitude"`
	Latitude         float64     `json:"latitude"`
	Crops            []CropEntry `json:"crops,omitempty"`
}

// RawParcel is a parcel event as observed upstream, before admission.
// Area comes in two measures; acreage is preferred, square footage is the
// fallback when acreage is missing.
type RawParcel struct {
	ID               string  `json:"id"`
	DocumentNumber   string  `json:"document_number"`
	JurisdictionCode string  `json:"jurisdiction_code"`
	SaleDate         string  `json:"sale_date"`
	SaleAmount       float64 `json:"sale_amount"`
	AreaAcres        float64 `json:"area_acres"`
	AreaSqft         float64 `json:"area_sqft"`
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
}

// PreferredArea returns the acreage measure when present, otherwise the
// square-footage measure converted to acres.
func (r RawParcel) PreferredArea() float64 {
	if r.AreaAcres > 0 {
		return r.AreaAcres
	}
	if r.AreaSqft > 0 {
		return r.AreaSqft / SqftPerAcre
	}
	return 0
}

// CropProfile is the ranked top-N land-use summary for one total acreage.
// Entries are ordered by descending originating weight, at most MaxCropEntries.
type CropProfile struct {
	Key     float64     `json:"key"`
	Entries []CropEntry `json:"entries"`
}

// PendingRequest is an in-flight or retrying crop-statistics fetch.
type PendingRequest struct {
	RequestID  string    `json:"request_id"`
	Payload    []byte    `json:"payload"`
	IssuedAt   time.Time `json:"issued_at"`
	RetryCount int       `json:"retry_count"`
}

// Snapshot is the persisted state: parcels, the dedup id set, and crop
// profiles keyed by their quantized key string.
type Snapshot struct {
	Parcels  []Parcel               `json:"entities"`
	DedupIDs []string               `json:"dedupIds"`
	Profiles map[string]CropProfile `json:"profiles"`
}

// Quantize rounds an area to 2 decimal places, the resolution used for
// profile keys.
func Quantize(v float64) float64 {
	return math.Round(v*100) / 100
}

// KeyString formats a quantized key the way the snapshot stores it.
func KeyString(v float64) string {
	return strconv.FormatFloat(Quantize(v), 'f', 2, 64)
}
