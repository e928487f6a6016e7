// Package importer parses load spreadsheets (xlsx or csv) into validated
// load records.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v2"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// MaxRows is the largest number of data rows accepted per upload
const MaxRows = 5000

// maxFileBytes bounds how much of an upload is read into memory
const maxFileBytes = 20 << 20

// Column names used after header normalization
const (
	ColLoadNumber  = "load_number"
	ColOrigin      = "origin"
	ColDestination = "destination"
	ColEquipment   = "equipment_type"
	ColRate        = "rate"
	ColPickupDate  = "pickup_date"
	ColCommodity   = "commodity"
	ColWeight      = "weight_lbs"
)

var headerAliases = map[string]string{
	"load #":         ColLoadNumber,
	"load#":          ColLoadNumber,
	"load number":    ColLoadNumber,
	"load_number":    ColLoadNumber,
	"load no":        ColLoadNumber,
	"load id":        ColLoadNumber,
	"origin":         ColOrigin,
	"pickup":         ColOrigin,
	"pickup city":    ColOrigin,
	"shipper city":   ColOrigin,
	"destination":    ColDestination,
	"delivery":       ColDestination,
	"dest":           ColDestination,
	"consignee city": ColDestination,
	"equipment":      ColEquipment,
	"equipment type": ColEquipment,
	"equipment_type": ColEquipment,
	"trailer":        ColEquipment,
	"rate":           ColRate,
	"pay":            ColRate,
	"linehaul":       ColRate,
	"pickup date":    ColPickupDate,
	"pickup_date":    ColPickupDate,
	"ship date":      ColPickupDate,
	"commodity":      ColCommodity,
	"weight":         ColWeight,
	"weight (lbs)":   ColWeight,
	"weight_lbs":     ColWeight,
}

var requiredColumns = []string{ColLoadNumber, ColOrigin, ColDestination}

// RowError is one rejected spreadsheet row. Row numbers are 1-based with
// the header on row 1.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result summarizes an import
type Result struct {
	TotalRows         int        `json:"total_rows"`
	Imported          int        `json:"imported"`
	SkippedDuplicates int        `json:"skipped_duplicates"`
	Invalid           int        `json:"invalid"`
	Errors            []RowError `json:"errors"`
}

// Row is a validated load with its spreadsheet row number
type Row struct {
	Number int
	Load   models.Load
}

// Batch is a parsed upload: valid rows plus the running result
type Batch struct {
	Rows   []Row
	Result Result
}

// ReadRecords reads the first sheet of an xlsx file or a csv file into
// string records, choosing the format by file extension
func ReadRecords(filename string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileBytes+1))
	if err != nil {
		return nil, apperrors.InvalidInput("failed to read upload", err)
	}
	if len(data) > maxFileBytes {
		return nil, apperrors.InvalidInput("file too large", nil).WithDetails("maximum 20MB")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(data)
	case ".csv":
		return readCSV(data)
	default:
		return nil, apperrors.InvalidInput("unsupported file type", nil).WithDetails("upload a .xlsx or .csv file")
	}
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, apperrors.InvalidInput("failed to open spreadsheet", err)
	}
	if len(f.Sheets) == 0 {
		return nil, apperrors.InvalidInput("spreadsheet has no sheets", nil)
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.InvalidInput("failed to parse CSV", err)
	}
	return records, nil
}

// NormalizeHeader maps a header cell to its canonical column name
func NormalizeHeader(cell string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(cell)), " ")
	col, ok := headerAliases[key]
	return col, ok
}

// Parse maps the header row, validates every data row and drops
// duplicates within the file. Existence checks against stored loads are
// left to the caller.
func Parse(records [][]string) (*Batch, error) {
	if len(records) == 0 {
		return nil, apperrors.InvalidInput("file is empty", nil)
	}

	columns := make(map[string]int)
	for i, cell := range records[0] {
		if col, ok := NormalizeHeader(cell); ok {
			if _, dup := columns[col]; !dup {
				columns[col] = i
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.ValidationError("missing required columns", nil).
			WithDetails(strings.Join(missing, ", "))
	}

	batch := &Batch{Result: Result{Errors: []RowError{}}}
	seen := make(map[string]bool)

	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}
		batch.Result.TotalRows++
		if batch.Result.TotalRows > MaxRows {
			return nil, apperrors.InvalidInput("too many rows", nil).
				WithDetails(fmt.Sprintf("maximum %d rows per upload", MaxRows))
		}

		get := func(col string) string {
			idx, ok := columns[col]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		load, rowErr := parseLoad(get)
		if rowErr != nil {
			rowErr.Row = rowNum
			batch.Result.Invalid++
			batch.Result.Errors = append(batch.Result.Errors, *rowErr)
			continue
		}

		key := strings.ToUpper(load.LoadNumber)
		if seen[key] {
			batch.Result.SkippedDuplicates++
			continue
		}
		seen[key] = true
		batch.Rows = append(batch.Rows, Row{Number: rowNum, Load: load})
	}

	return batch, nil
}

func parseLoad(get func(string) string) (models.Load, *RowError) {
	load := models.Load{
		LoadNumber:    get(ColLoadNumber),
		Origin:        get(ColOrigin),
		Destination:   get(ColDestination),
		EquipmentType: get(ColEquipment),
		Commodity:     get(ColCommodity),
		Status:        models.LoadOpen,
		IsActive:      true,
	}

	for _, col := range requiredColumns {
		if get(col) == "" {
			return load, &RowError{Field: col, Message: col + " is required"}
		}
	}

	if raw := get(ColRate); raw != "" {
		rate, err := ParseAmount(raw)
		if err != nil {
			return load, &RowError{Field: ColRate, Message: fmt.Sprintf("invalid rate %q", raw)}
		}
		load.Rate = &rate
	}

	if raw := get(ColWeight); raw != "" {
		weight, err := ParseAmount(raw)
		if err != nil {
			return load, &RowError{Field: ColWeight, Message: fmt.Sprintf("invalid weight %q", raw)}
		}
		load.WeightLbs = &weight
	}

	if raw := get(ColPickupDate); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			return load, &RowError{Field: ColPickupDate, Message: fmt.Sprintf("invalid pickup date %q", raw)}
		}
		load.PickupDate = &date
	}

	return load, nil
}

// ParseAmount parses money or weight text such as "$1,250.00" or
// "42,000 lbs". Negative amounts are rejected.
func ParseAmount(raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "lbs")
	s = strings.TrimSuffix(s, "lb")
	s = strings.NewReplacer("$", "", ",", "", " ", "", "usd", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %v", v)
	}
	return v, nil
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "1/2/06", "01/02/06"}

// excelEpoch is day zero of spreadsheet serial dates
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts ISO, US slash dates and spreadsheet serial day numbers
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
