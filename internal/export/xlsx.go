package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
)

// XLSX renders the parcels as a single-sheet workbook with the same columns
// as the CSV export.
func XLSX(parcels []entity.Parcel) ([]byte, error) {
	if len(parcels) == 0 {
		return nil, common.ErrEmptyDataset
	}

	f := excelize.NewFile()
	const sheet = "Parcels"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, p := range parcels {
		for col, v := range Row(p) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	// Widen the identity and crop-name columns
	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "I", "I", 22)
	_ = f.SetColWidth(sheet, "K", "K", 22)
	_ = f.SetColWidth(sheet, "M", "M", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
