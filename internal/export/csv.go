package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
)

// Headers is the fixed export column order. Crop columns always appear for
// all three slots; missing slots serialize as empty strings.
var Headers = []string{
	"document_number",
	"jurisdiction_code",
	"sale_date",
	"sale_amount",
	"area",
	"price_per_area",
	"longitude",
	"latitude",
	"crop_1", "crop_1_acres",
	"crop_2", "crop_2_acres",
	"crop_3", "crop_3_acres",
}

// CSV renders the parcels as UTF-8 delimited text: a header row, then one row
// per parcel in the order given. Fields containing commas, quotes, or
// newlines are quoted with internal quotes doubled. Exporting an empty
// dataset is an error; the caller performs no file side effect in that case.
func CSV(parcels []entity.Parcel) ([]byte, error) {
	if len(parcels) == 0 {
		return nil, common.ErrEmptyDataset
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, p := range parcels {
		if err := w.Write(Row(p)); err != nil {
			return nil, fmt.Errorf("write parcel %s: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Row serializes one parcel in header order.
func Row(p entity.Parcel) []string {
	row := []string{
		p.DocumentNumber,
		p.JurisdictionCode,
		p.SaleDate,
		amount(p.SaleAmount),
		amount(p.Area),
		amount(p.PricePerArea),
		coordinate(p.Longitude),
		coordinate(p.Latitude),
	}
	for i := 0; i < entity.MaxCropEntries; i++ {
		if i < len(p.Crops) {
			row = append(row, p.Crops[i].Name, amount(p.Crops[i].Acres))
		} else {
			row = append(row, "", "")
		}
	}
	return row
}

func amount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func coordinate(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
