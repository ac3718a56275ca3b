package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		rng     string
		want    cellRange
		wantErr bool
	}{
		{rng: "Internal!A4:B", want: cellRange{sheet: "Internal", startCol: 1, endCol: 2, startRow: 4}},
		{rng: "'All Divisions Players'!F4:G", want: cellRange{sheet: "All Divisions Players", startCol: 6, endCol: 7, startRow: 4}},
		{rng: "Internal!H12:K15", want: cellRange{sheet: "Internal", startCol: 8, endCol: 11, startRow: 12, endRow: 15}},
		{rng: "A4:B", wantErr: true},
		{rng: "Internal!A4", wantErr: true},
		{rng: "Internal!A:B", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			got, err := parseRange(tt.rng)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestXLSXGrid_MissingWorkbookIsEmpty(t *testing.T) {
	grid, err := NewXLSXGrid(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	rows, err := grid.ReadRange(context.Background(), "nothing", "Internal!A4:B")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXGrid_ReadsLikeSheets(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	_, err := f.NewSheet("Internal")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Internal", "A1", "header"))
	require.NoError(t, f.SetCellValue("Internal", "A4", "link"))
	require.NoError(t, f.SetCellValue("Internal", "B4", "alice"))
	require.NoError(t, f.SetCellValue("Internal", "C4", "ignored"))
	require.NoError(t, f.SetCellValue("Internal", "B6", "carol"))
	require.NoError(t, f.SetCellValue("Internal", "H9", "other division"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "main.xlsx")))
	require.NoError(t, f.Close())

	grid, err := NewXLSXGrid(dir, zerolog.Nop())
	require.NoError(t, err)

	rows, err := grid.ReadRange(context.Background(), "main", "Internal!A4:B")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"link", "alice"}, {}, {"", "carol"}}, rows)
}

func TestXLSXGrid_SyncerRoundTrip(t *testing.T) {
	grid, err := NewXLSXGrid(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	syncer := NewSyncer(grid, testLayouts, zerolog.Nop()).WithClock(func() time.Time { return playedAt })
	ctx := context.Background()

	dup, err := syncer.Append(ctx, testRecord(domain.Div1, "https://colonist.io/replay/one"))
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = syncer.Append(ctx, testRecord(domain.Div2, "https://colonist.io/replay/one"))
	require.NoError(t, err)
	assert.False(t, dup, "regions of other divisions are not consulted")

	next, err := syncer.NextFreeRow(ctx, domain.Div1)
	require.NoError(t, err)
	assert.Equal(t, 8, next)

	dup, err = syncer.Append(ctx, testRecord(domain.Div1, "https://colonist.io/replay/one"))
	require.NoError(t, err)
	assert.True(t, dup)

	rows, err := grid.ReadRange(ctx, "main", "Internal!A4:C")
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"https://colonist.io/replay/one", "alice", "10"}, rows[0])
	assert.Equal(t, []string{"2025-01-03T18:04:05+00:00", "b (FALLBACK)", "7"}, rows[1])
	assert.Equal(t, []string{"⚠️", "dave", "4"}, rows[7])
}
