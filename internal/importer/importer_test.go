package importer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
)

func buildXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Loads")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadRecords_XLSX(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"Load #", "Pickup", "Delivery", "Rate"},
		{"L1001", "Dallas, TX", "Atlanta, GA", "$2,150.00"},
	})

	records, err := ReadRecords("loads.XLSX", bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "L1001", records[1][0])

	batch, err := Parse(records)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	load := batch.Rows[0].Load
	assert.Equal(t, "Dallas, TX", load.Origin)
	assert.Equal(t, "Atlanta, GA", load.Destination)
	require.NotNil(t, load.Rate)
	assert.Equal(t, 2150.0, *load.Rate)
}

func TestReadRecords_CSVWithBOM(t *testing.T) {
	csvData := "\xef\xbb\xbfload number,origin,destination\nA1,Reno NV,Boise ID\n"

	records, err := ReadRecords("loads.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	col, ok := NormalizeHeader(records[0][0])
	assert.True(t, ok)
	assert.Equal(t, ColLoadNumber, col)
}

func TestReadRecords_UnsupportedType(t *testing.T) {
	_, err := ReadRecords("loads.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}

func TestParse_ValidationAndDuplicates(t *testing.T) {
	records := [][]string{
		{"Load Number", "Origin", "Dest", "Equipment Type", "Pay", "Pickup Date", "Weight"},
		{"L1", "Dallas, TX", "Atlanta, GA", "Reefer", "$1,250.00", "03/15/2026", "42,000 lbs"},
		{"", "Dallas, TX", "Atlanta, GA", "", "", "", ""},
		{"L2", "Dallas, TX", "", "", "", "", ""},
		{"l1", "Austin, TX", "Macon, GA", "", "", "", ""},
		{"", "", "", "", "", "", ""},
		{"L3", "Tulsa, OK", "Omaha, NE", "", "abc", "", ""},
		{"L4", "Tulsa, OK", "Omaha, NE", "", "", "2026-13-40", ""},
		{"L5", "Tulsa, OK", "Omaha, NE", "Van", "900", "1/2/26", ""},
	}

	batch, err := Parse(records)
	require.NoError(t, err)

	assert.Equal(t, 7, batch.Result.TotalRows)
	assert.Equal(t, 4, batch.Result.Invalid)
	assert.Equal(t, 1, batch.Result.SkippedDuplicates)
	require.Len(t, batch.Rows, 2)

	first := batch.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, "Reefer", first.Load.EquipmentType)
	assert.Equal(t, 1250.0, *first.Load.Rate)
	assert.Equal(t, 42000.0, *first.Load.WeightLbs)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *first.Load.PickupDate)
	assert.True(t, first.Load.IsActive)

	assert.Equal(t, "L5", batch.Rows[1].Load.LoadNumber)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), *batch.Rows[1].Load.PickupDate)

	require.Len(t, batch.Result.Errors, 4)
	assert.Equal(t, RowError{Row: 3, Field: ColLoadNumber, Message: "load_number is required"}, batch.Result.Errors[0])
	assert.Equal(t, 4, batch.Result.Errors[1].Row)
	assert.Equal(t, ColRate, batch.Result.Errors[2].Field)
	assert.Equal(t, 7, batch.Result.Errors[2].Row)
	assert.Equal(t, ColPickupDate, batch.Result.Errors[3].Field)
}

func TestParse_MissingRequiredColumns(t *testing.T) {
	_, err := Parse([][]string{{"Load #", "Rate"}, {"L1", "100"}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationError))
	assert.Contains(t, apperrors.PublicMessage(err), "origin, destination")
}

func TestParse_RowLimit(t *testing.T) {
	records := [][]string{{"load_number", "origin", "destination"}}
	for i := 0; i <= MaxRows; i++ {
		records = append(records, []string{fmt.Sprintf("L%d", i), "A", "B"})
	}

	_, err := Parse(records)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	batch, err := Parse(records[:MaxRows+1])
	require.NoError(t, err)
	assert.Len(t, batch.Rows, MaxRows)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$1,250.00", 1250, true},
		{"1250", 1250, true},
		{" $ 900 ", 900, true},
		{"42,000 lbs", 42000, true},
		{"-5", 0, false},
		{"call", 0, false},
	}

	for _, tc := range testCases {
		got, err := ParseAmount(tc.raw)
		if tc.ok {
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.want, got, tc.raw)
		} else {
			assert.Error(t, err, tc.raw)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-03-05", "03/05/2026", "3/5/2026", "3/5/26"} {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	serial, err := ParseDate("46086")
	require.NoError(t, err)
	assert.Equal(t, want, serial)

	_, err = ParseDate("next tuesday")
	assert.Error(t, err)
}
