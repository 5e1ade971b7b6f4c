package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetReader reads a rectangular range of cells, as the Google Sheets
// repository does.
type SheetReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// ReadXLSX loads the rows of a workbook sheet. An empty sheet name selects
// the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformedInput, err)
	}
	defer book.Close()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedInput)
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", ErrMalformedInput, sheet, err)
	}
	return rows, nil
}

// ReadSheet fetches a Google Sheets range and converts the cells to strings.
func ReadSheet(ctx context.Context, reader SheetReader, sheetRange string) ([][]string, error) {
	values, err := reader.ReadRange(ctx, sheetRange)
	if err != nil {
		return nil, fmt.Errorf("read sheet range %s: %w", sheetRange, err)
	}
	return RowsFromValues(values), nil
}

// RowsFromValues stringifies Sheets API cell values.
func RowsFromValues(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				cells[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = cells
	}
	return rows
}

// InputFromFile picks the input format from a file name extension. Workbooks
// are read with ReadXLSX; sheet selects the worksheet and may be empty.
func InputFromFile(name string, data []byte, sheet string) (Input, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		rows, err := ReadXLSX(bytes.NewReader(data), sheet)
		if err != nil {
			return Input{}, err
		}
		return Input{Format: FormatRows, Rows: rows}, nil
	case ".json":
		return Input{Format: FormatJSON, Data: data}, nil
	case ".csv", ".tsv", ".txt", "":
		return Input{Format: FormatText, Data: data}, nil
	default:
		return Input{}, fmt.Errorf("%w: unsupported file type %s", ErrUnknownFormat, ext)
	}
}
