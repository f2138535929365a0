package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/xuri/excelize/v2"

	apperrors "seafoodpulse/internal/errors"
)

// ReadResult is the outcome of reading one workbook. Found is false when
// the source does not exist; Grid is nil in that case.
type ReadResult struct {
	Found bool
	Sheet string
	Grid  RawGrid
}

// ExcelReader loads a single sheet of a workbook as a RawGrid without any
// header interpretation.
type ExcelReader struct {
	sheet string
}

// NewExcelReader returns a reader for the named sheet, or the first sheet
// when sheet is empty.
func NewExcelReader(sheet string) *ExcelReader {
	return &ExcelReader{sheet: sheet}
}

// Read loads the workbook at path. A missing file is reported through
// ReadResult.Found; every other failure is returned as an error.
func (r *ExcelReader) Read(path string) (ReadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ReadResult{Found: false}, nil
		}
		return ReadResult{}, apperrors.NewFileError(path, err)
	}
	defer f.Close()

	return r.read(f, path)
}

// ReadBytes loads a workbook held in memory
func (r *ExcelReader) ReadBytes(data []byte) (ReadResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ReadResult{}, apperrors.NewParsingError("open workbook", err)
	}
	defer f.Close()

	return r.read(f, "<memory>")
}

func (r *ExcelReader) read(f *excelize.File, source string) (ReadResult, error) {
	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return ReadResult{}, apperrors.NewParsingError(fmt.Sprintf("sheet %q not found in %s", sheet, source), err)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return ReadResult{}, apperrors.NewParsingError(fmt.Sprintf("read rows of %s", source), err)
	}

	grid := make(RawGrid, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			if v != "" {
				cells[j] = v
			}
		}
		grid[i] = cells
	}

	return ReadResult{Found: true, Sheet: sheet, Grid: grid}, nil
}
