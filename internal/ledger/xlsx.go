package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// XLSXGrid keeps each spreadsheet as <dir>/<spreadsheetID>.xlsx. It backs
// offline runs where no Google credentials are available.
type XLSXGrid struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewXLSXGrid(dir string, logger zerolog.Logger) (*XLSXGrid, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &XLSXGrid{dir: dir, logger: logger}, nil
}

func (g *XLSXGrid) path(spreadsheetID string) string {
	return filepath.Join(g.dir, spreadsheetID+".xlsx")
}

func (g *XLSXGrid) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	r, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := excelize.OpenFile(g.path(spreadsheetID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(r.sheet); err != nil || idx == -1 {
		return nil, nil
	}
	sheetRows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", r.sheet, err)
	}

	lastRow := r.endRow
	if lastRow == 0 {
		lastRow = len(sheetRows)
	}

	var out [][]string
	for rowNum := r.startRow; rowNum <= lastRow; rowNum++ {
		var src []string
		if rowNum-1 < len(sheetRows) {
			src = sheetRows[rowNum-1]
		}
		row := make([]string, 0, r.endCol-r.startCol+1)
		for col := r.startCol; col <= r.endCol; col++ {
			cell := ""
			if col-1 < len(src) {
				cell = src[col-1]
			}
			row = append(row, cell)
		}
		out = append(out, trimEmpty(row))
	}

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (g *XLSXGrid) WriteRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	r, err := parseRange(rng)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	path := g.path(spreadsheetID)
	f, err := excelize.OpenFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f = excelize.NewFile()
	} else if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(r.sheet); err != nil || idx == -1 {
		if _, err := f.NewSheet(r.sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", r.sheet, err)
		}
	}

	for i, row := range values {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(r.startCol+j, r.startRow+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(r.sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	g.logger.Debug().Str("path", path).Str("range", rng).Msg("workbook range written")
	return nil
}

type cellRange struct {
	sheet            string
	startCol, endCol int
	startRow, endRow int // endRow 0 means open-ended
}

// parseRange understands the subset of A1 notation the ledger uses:
// 'Tab Name'!B4:C and Tab!A12:D15.
func parseRange(rng string) (cellRange, error) {
	var r cellRange
	bang := strings.LastIndex(rng, "!")
	if bang < 0 {
		return r, fmt.Errorf("range %q has no sheet", rng)
	}
	r.sheet = strings.Trim(rng[:bang], "'")

	start, end, ok := strings.Cut(rng[bang+1:], ":")
	if !ok {
		return r, fmt.Errorf("range %q has no end cell", rng)
	}

	var err error
	if r.startCol, r.startRow, err = splitCell(start); err != nil {
		return r, err
	}
	if r.startRow == 0 {
		return r, fmt.Errorf("range %q has no start row", rng)
	}
	if r.endCol, r.endRow, err = splitCell(end); err != nil {
		return r, err
	}
	return r, nil
}

func splitCell(cell string) (col, row int, err error) {
	i := strings.IndexFunc(cell, func(c rune) bool { return c >= '0' && c <= '9' })
	letters, digits := cell, ""
	if i >= 0 {
		letters, digits = cell[:i], cell[i:]
	}
	if col, err = excelize.ColumnNameToNumber(letters); err != nil {
		return 0, 0, fmt.Errorf("bad cell %q: %w", cell, err)
	}
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil {
			return 0, 0, fmt.Errorf("bad cell %q: %w", cell, err)
		}
	}
	return col, row, nil
}

func trimEmpty(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}
