package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"baselinebuilder/internal/config"
	"baselinebuilder/internal/shared/testutil"
	"baselinebuilder/pkg/contracts/domain"
)

func sampleBaseline() *domain.Baseline {
	return &domain.Baseline{
		UnitCode:        " U1/B\t",
		DiscountPercent: -10,
		GeneratedAt:     time.Date(2024, 5, 6, 10, 0, 0, 0, time.Local),
		Rows: []domain.SeasonAggregate{
			{Season: "Winter", StartDate: "2024-01-01", EndDate: "2024-03-31", DailyRate: 150, WeeklyRate: 1050, Nights: 2},
			{Season: "Summer", StartDate: "2024-06-01", EndDate: "2024-08-31", DailyRate: 123.45, WeeklyRate: 864.15, Nights: 1},
		},
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{150, "150.0"},
		{165.5, "165.5"},
		{123.45, "123.45"},
		{0, "0.0"},
		{-12.3, "-12.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRate(tt.in))
	}
}

func TestRecordsDropsNights(t *testing.T) {
	records := Records(sampleBaseline().Rows)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Winter", "2024-01-01", "2024-03-31", "150.0", "1050.0"}, records[0])
	assert.Len(t, records[1], len(Columns))
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		bom     bool
		wantBOM bool
	}{
		{"plain", false, false},
		{"with BOM", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exp := New(config.ExportConfig{BOM: tt.bom}, nil)
			require.NoError(t, exp.Write(&buf, sampleBaseline(), domain.ExportFormatCSV))

			data := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, Columns, records[0])
			assert.Equal(t, "Winter", records[1][0])
			assert.Equal(t, "Summer", records[2][0])
		})
	}
}

func TestWriteCSVHeaderOnlyForEmptyBaseline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, WriteOptions{Headers: Columns}))
	assert.Equal(t, "Season,Start_Date,End_Date,Daily_Rate,Weekly_Rate\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	exp := New(config.ExportConfig{}, nil)
	require.NoError(t, exp.Write(&buf, sampleBaseline(), domain.ExportFormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Summer", rows[2][0])

	cellType, err := f.GetCellType(SheetName, "D3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "rates are numeric cells")
	raw, err := f.GetCellValue(SheetName, "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "123.45", raw)
}

func TestWriteUnsupportedFormat(t *testing.T) {
	exp := New(config.ExportConfig{}, nil)
	err := exp.Write(&bytes.Buffer{}, sampleBaseline(), domain.ExportFormat("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = exp.WriteFile(t.TempDir(), sampleBaseline(), domain.ExportFormat("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFile(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	exp := New(config.ExportConfig{}, logger)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := exp.WriteFile(dir, sampleBaseline(), domain.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "U1-B_-10_2024-05-06.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Winter,2024-01-01,2024-03-31,150.0,1050.0")
	assert.True(t, logs.ContainsMessage("baseline written"))

	path, err = exp.WriteFile(dir, sampleBaseline(), domain.ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))
}
