package resolver

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/croplands/parcel-recon/internal/entity"
)

// cropStatsSchema constrains the crop-statistics response before parsing:
// parallel label/weight arrays plus the total acreage scalar. A response
// missing any of the three is a shape failure, same as a decode error.
var cropStatsSchema = jsonschema.MustCompileString("cropstats.json", `{
	"type": "object",
	"required": ["labels", "data", "acres"],
	"properties": {
		"labels": {"type": "array", "items": {"type": "string"}},
		"data":   {"type": "array", "items": {"type": "number"}},
		"acres":  {"type": "number"}
	}
}`)

type cropStatsResponse struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
	Acres  float64   `json:"acres"`
}

// ParseCropStats validates and parses a crop-statistics response into a
// ranked profile: per-label acreage is weight * total acres, labels are
// ordered by descending weight, and the top entries are kept with acreage
// rounded to 2 decimal places. The profile key is the total acreage, also
// rounded to 2 decimal places.
func ParseCropStats(body []byte) (entity.CropProfile, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return entity.CropProfile{}, &FetchError{Kind: KindShape, Err: err}
	}
	if err := cropStatsSchema.Validate(doc); err != nil {
		return entity.CropProfile{}, &FetchError{Kind: KindShape, Err: err}
	}

	var resp cropStatsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return entity.CropProfile{}, &FetchError{Kind: KindShape, Err: err}
	}
	if len(resp.Labels) != len(resp.Data) {
		return entity.CropProfile{}, &FetchError{
			Kind: KindShape,
			Err:  errors.New("labels and data length mismatch"),
		}
	}

	type ranked struct {
		label  string
		weight float64
	}
	pairs := make([]ranked, len(resp.Labels))
	for i, label := range resp.Labels {
		pairs[i] = ranked{label: label, weight: resp.Data[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].weight > pairs[j].weight
	})
	if len(pairs) > entity.MaxCropEntries {
		pairs = pairs[:entity.MaxCropEntries]
	}

	prof := entity.CropProfile{Key: entity.Quantize(resp.Acres)}
	for _, p := range pairs {
		prof.Entries = append(prof.Entries, entity.CropEntry{
			Name:  p.label,
			Acres: entity.Quantize(p.weight * resp.Acres),
		})
	}
	return prof, nil
}
