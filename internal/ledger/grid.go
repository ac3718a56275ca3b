// Package ledger appends scored games to the standings spreadsheet.
package ledger

import (
	"context"

	"catan-standings/internal/config"
	"catan-standings/internal/constants"
	"catan-standings/internal/domain"
)

// Grid is a positionally addressed spreadsheet. Ranges use A1 notation
// qualified by tab name. Reads omit trailing empty rows and cells.
type Grid interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	WriteRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

// Layout locates a division's region in the ledger.
type Layout struct {
	SpreadsheetID string
	Tab           string
	BaseColumn    byte
	HeaderRow     int
}

func (l Layout) nameColumn() byte  { return ShiftColumn(l.BaseColumn, 1) }
func (l Layout) lastColumn() byte  { return ShiftColumn(l.BaseColumn, 3) }
func (l Layout) readRange() string { return A1(l.Tab, l.BaseColumn, l.HeaderRow, l.nameColumn(), 0) }

func (l Layout) writeRange(firstRow int) string {
	return A1(l.Tab, l.BaseColumn, firstRow, l.lastColumn(), firstRow+domain.SeatCount-1)
}

// Layouts is the fixed per-division lookup table. Divisions that are not
// enabled in cfg get no region.
func Layouts(cfg *config.Config) map[domain.Division]Layout {
	all := map[domain.Division]Layout{
		domain.Div1: {SpreadsheetID: cfg.SpreadsheetID, Tab: constants.DataEntryTabName, BaseColumn: 'A', HeaderRow: constants.StartingDataEntryRow},
		domain.Div2: {SpreadsheetID: cfg.SpreadsheetID, Tab: constants.DataEntryTabName, BaseColumn: 'H', HeaderRow: constants.StartingDataEntryRow},
		domain.CK:   {SpreadsheetID: cfg.CKSpreadsheetID, Tab: constants.DataEntryTabName, BaseColumn: 'A', HeaderRow: constants.StartingDataEntryRow},
	}
	layouts := make(map[domain.Division]Layout, len(all))
	for d, l := range all {
		if cfg.Enabled(d) {
			layouts[d] = l
		}
	}
	return layouts
}
