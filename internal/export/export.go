// Package export renders flat records into a single-sheet XLSX workbook.
package export

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"places-workers/internal/models"
)

const (
	SheetName   = "Tours"
	FileName    = "tourist_activities.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Schema is the ordered list of column keys. It is also the header row.
type Schema []string

// TourSchema orders the columns of a TourRecord export.
var TourSchema = Schema{"companyName", "placeOfActivity", "address", "contact", "city"}

// Columns returns the schema keys followed by any keys present in rows but
// absent from the schema, sorted, so no data is dropped.
func (s Schema) Columns(rows []map[string]any) []string {
	known := make(map[string]struct{}, len(s))
	cols := make([]string, 0, len(s))
	for _, key := range s {
		if _, dup := known[key]; dup {
			continue
		}
		known[key] = struct{}{}
		cols = append(cols, key)
	}

	var extra []string
	for _, row := range rows {
		for key := range row {
			if _, ok := known[key]; ok {
				continue
			}
			known[key] = struct{}{}
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// Export writes rows into a workbook with one sheet named Tours. An empty
// slice yields a sheet holding only the header row.
func Export(rows []map[string]any, schema Schema) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	cols := schema.Columns(rows)

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for r, row := range rows {
		values := make([]interface{}, len(cols))
		for i, c := range cols {
			v, err := cellValue(row[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r+1, c, err)
			}
			values[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportTours exports TourRecords with TourSchema.
func ExportTours(records []models.TourRecord) ([]byte, error) {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = r.ToRow()
	}
	return Export(rows, TourSchema)
}

// cellValue keeps scalars as they are and flattens nested values to JSON text.
func cellValue(v any) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string, bool, float64, float32, int, int64, int32, json.Number:
		return val, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}
