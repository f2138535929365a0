package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

// weeklySheet lays out rows the way the archive publishes them: two
// leading columns, the label in C and eight numbers in D..K.
func weeklySheet(markets map[string][]any, order ...string) [][]any {
	rows := [][]any{
		{nil, nil, "Eksport av sjømat"},
		{nil, nil, "Land", "Uke", "Pris"},
		{nil, nil, "TOTALT", 1000, 60},
	}
	for _, m := range order {
		rows = append(rows, append([]any{nil, nil, m}, markets[m]...))
	}
	return rows
}

func newWorkbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	return f
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := newWorkbook(t, rows)
	defer f.Close()
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelReader_Read(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "uke-36-laks-og-orret.xlsx", weeklySheet(
		map[string][]any{"USA": {100, 50.5, 90, 48.0, 500, 49, 480, 47}},
		"USA",
	))

	res, err := NewExcelReader("").Read(path)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "Sheet1", res.Sheet)
	require.Len(t, res.Grid, 4)

	assert.Nil(t, cellAt(res.Grid[0], 0), "blank cells are nil")
	assert.Equal(t, "TOTALT", CellString(cellAt(res.Grid[2], labelColumn)))
	assert.Equal(t, 50.5, CoerceNumber(cellAt(res.Grid[3], 4)))
}

func TestExcelReader_ReadMissingFile(t *testing.T) {
	res, err := NewExcelReader("").Read(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Grid)
}

func TestExcelReader_ReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	_, err := NewExcelReader("").Read(path)
	assert.Error(t, err)
}

func TestExcelReader_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), "a.xlsx", [][]any{{"x"}})

	_, err := NewExcelReader("Statistikk").Read(path)
	assert.Error(t, err)
}

func TestExcelReader_ReadBytes(t *testing.T) {
	f := newWorkbook(t, weeklySheet(map[string][]any{"Japan": {5, 6}}, "Japan"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := NewExcelReader("").ReadBytes(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Len(t, res.Grid, 4)

	_, err = NewExcelReader("").ReadBytes([]byte("garbage"))
	assert.Error(t, err)
}

func TestProcessor_ProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "uke-36-laks-og-orret.xlsx", weeklySheet(
		map[string][]any{
			"USA":   {100, 50.5, 90, 48.0, 500, 49, 480, 47},
			"Japan": {20, 70, 0, 0, 40, 71, 0, 0},
		},
		"USA", "Japan",
	))
	writeWorkbook(t, dir, "uke-35-laks-og-orret.xlsx", weeklySheet(
		map[string][]any{"USA": {80, 50, 85, 47, 400, 49, 390, 46}},
		"USA",
	))
	writeWorkbook(t, dir, "uke-36-hvitfiskprodukter.xlsx", weeklySheet(
		map[string][]any{"Portugal": {300, 40}},
		"Portugal",
	))
	writeWorkbook(t, dir, "oversikt.xlsx", [][]any{{"nothing here"}})
	writeWorkbook(t, dir, "~$uke-36-laks-og-orret.xlsx", [][]any{{"lock"}})

	p := NewProcessor(nil, nil, nil)
	res, err := p.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Files, 3)
	assert.Equal(t, "uke-36-hvitfiskprodukter.xlsx", res.Files[0].Name)
	assert.Equal(t, "uke-35-laks-og-orret.xlsx", res.Files[1].Name)
	assert.Equal(t, "uke-36-laks-og-orret.xlsx", res.Files[2].Name)
	assert.Equal(t, 2, res.Files[2].Records)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "oversikt.xlsx", res.Skipped[0].Name)

	require.Len(t, res.Records, 4)
	assert.Equal(t, "Portugal", res.Records[0].Market)
	assert.Equal(t, domain.CategoryWhitefish, res.Records[0].Category)
	assert.Equal(t, 35, res.Records[1].Week)
	assert.Equal(t, "USA", res.Records[2].Market)
	assert.Equal(t, 50.5, res.Records[2].CurrentPrice)
	assert.Equal(t, "Japan", res.Records[3].Market)
}

func TestProcessor_ProcessFilesUnusable(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "~$uke-3-sild-og-makrell.xlsx")
	legacy := filepath.Join(dir, "uke-4-sild-og-makrell.xls")
	require.NoError(t, os.WriteFile(lock, []byte("lock"), 0644))
	require.NoError(t, os.WriteFile(legacy, []byte("old"), 0644))

	tests := []struct {
		name       string
		path       string
		wantReason string
	}{
		{"vanished", filepath.Join(dir, "uke-2-sild-og-makrell.xlsx"), "does not exist"},
		{"excel lock file", lock, "temporary Excel file"},
		{"legacy format", legacy, "not an xlsx workbook"},
	}

	p := NewProcessor(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.ProcessFiles(context.Background(), []string{tt.path})
			require.NoError(t, err)
			assert.Empty(t, res.Records)
			require.Len(t, res.Skipped, 1)
			assert.Contains(t, res.Skipped[0].Reason, tt.wantReason)
		})
	}
}

func TestProcessor_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "uke-2-sild-og-makrell.xlsx", weeklySheet(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor(nil, nil, nil).ProcessDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_ProcessBytes(t *testing.T) {
	f := newWorkbook(t, weeklySheet(map[string][]any{"Kina": {12, 80}}, "Kina"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	p := NewProcessor(nil, nil, nil)
	result, err := p.ProcessBytes(context.Background(), "uke-7-konvensjonelle-produkter.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 7, result.Records[0].Week)
	assert.Equal(t, domain.CategoryConventional, result.Records[0].Category)
	assert.Equal(t, 80.0, result.Records[0].CurrentPrice)
	require.Len(t, result.Files, 1)
	assert.Equal(t, 1, result.Files[0].Records)

	_, err = p.ProcessBytes(context.Background(), "untagged.xlsx", buf.Bytes())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
