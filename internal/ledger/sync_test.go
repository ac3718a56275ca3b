package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	spreadsheetID string
	rng           string
	values        [][]any
}

// memoryGrid serves fixed region contents and appends written rows to them.
type memoryGrid struct {
	mu       sync.Mutex
	rows     map[string][][]string // spreadsheetID|readRange -> rows
	writes   []write
	readErr  error
	writeErr error
}

func newMemoryGrid() *memoryGrid {
	return &memoryGrid{rows: make(map[string][][]string)}
}

func (g *memoryGrid) ReadRange(_ context.Context, spreadsheetID, rng string) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return nil, g.readErr
	}
	return g.rows[spreadsheetID+"|"+rng], nil
}

func (g *memoryGrid) WriteRange(_ context.Context, spreadsheetID, rng string, values [][]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	g.writes = append(g.writes, write{spreadsheetID: spreadsheetID, rng: rng, values: values})
	return nil
}

var testLayouts = map[domain.Division]Layout{
	domain.Div1: {SpreadsheetID: "main", Tab: "Internal", BaseColumn: 'A', HeaderRow: 4},
	domain.Div2: {SpreadsheetID: "main", Tab: "Internal", BaseColumn: 'H', HeaderRow: 4},
	domain.CK:   {SpreadsheetID: "ck", Tab: "Internal", BaseColumn: 'A', HeaderRow: 4},
}

var playedAt = time.Date(2025, 1, 3, 18, 4, 5, 0, time.UTC)

func testRecord(div domain.Division, link string) *domain.GameRecord {
	return &domain.GameRecord{
		Division:   div,
		Site:       domain.SiteColonist,
		ReplayLink: link,
		PlayedAt:   playedAt,
		Scores: []domain.PlayerScore{
			{SourceName: "a", RosterName: "alice", Score: 10},
			{SourceName: "b", Score: 7},
			{SourceName: "c", RosterName: "carol", Score: 6},
			{SourceName: "d", RosterName: "dave", Score: 4},
		},
	}
}

func TestShiftColumn(t *testing.T) {
	tests := []struct {
		base byte
		n    int
		want byte
	}{
		{base: 'A', n: 3, want: 'D'},
		{base: 'H', n: 0, want: 'H'},
		{base: 'H', n: 1, want: 'I'},
		// Known wrap past 'Z'; a fix to ShiftColumn must update this case.
		{base: 'Y', n: 3, want: 'B'},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%c+%d", tt.base, tt.n), func(t *testing.T) {
			assert.Equal(t, string(tt.want), string(ShiftColumn(tt.base, tt.n)))
		})
	}
}

func TestLayoutRanges(t *testing.T) {
	l := testLayouts[domain.Div2]
	assert.Equal(t, "Internal!H4:I", l.readRange())
	assert.Equal(t, "Internal!H12:K15", l.writeRange(12))
}

func TestFirstFreeRow(t *testing.T) {
	assert.Equal(t, 12, FirstFreeRow(4, 8))
	assert.Equal(t, 4, FirstFreeRow(4, 0))
}

func TestIsDuplicate(t *testing.T) {
	rows := [][]string{
		{"https://colonist.io/replay/a", "alice"},
		{"2025-01-03T18:04:05+00:00", "bob"},
		{},
		{"", "dave"},
	}

	assert.True(t, IsDuplicate(rows, "https://colonist.io/replay/a", "2030-01-01T00:00:00+00:00"))
	assert.True(t, IsDuplicate(rows, "https://colonist.io/replay/other", "2025-01-03T18:04:05+00:00"))
	assert.False(t, IsDuplicate(rows, "https://colonist.io/replay/other", "2025-01-03T18:04:06+00:00"))
	assert.False(t, IsDuplicate(nil, "x", "y"))
}

func TestSyncer_Append(t *testing.T) {
	grid := newMemoryGrid()
	existing := make([][]string, 8)
	for i := range existing {
		existing[i] = []string{fmt.Sprintf("meta-%d", i), "name"}
	}
	grid.rows["main|Internal!A4:B"] = existing

	now := playedAt.Add(time.Hour)
	syncer := NewSyncer(grid, testLayouts, zerolog.Nop()).WithClock(func() time.Time { return now })

	rec := testRecord(domain.Div1, "https://colonist.io/replay/new")
	dup, err := syncer.Append(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.False(t, rec.IsDuplicate)

	require.Len(t, grid.writes, 1)
	w := grid.writes[0]
	assert.Equal(t, "main", w.spreadsheetID)
	assert.Equal(t, "Internal!A12:D15", w.rng)
	assert.Equal(t, [][]any{
		{"https://colonist.io/replay/new", "alice", 10},
		{"2025-01-03T18:04:05+00:00", "b (FALLBACK)", 7},
		{"", "carol", 6},
		{"", "dave", 4},
	}, w.values)
}

func TestSyncer_AppendTwiceIsDuplicate(t *testing.T) {
	grid := newMemoryGrid()
	syncer := NewSyncer(grid, testLayouts, zerolog.Nop()).WithClock(func() time.Time { return playedAt })

	first := testRecord(domain.CK, "https://colonist.io/replay/same")
	dup, err := syncer.Append(context.Background(), first)
	require.NoError(t, err)
	assert.False(t, dup)

	// feed the written metadata column back as the region contents
	var region [][]string
	for _, row := range grid.writes[0].values {
		region = append(region, []string{row[0].(string), row[1].(string)})
	}
	grid.rows["ck|Internal!A4:B"] = region

	second := testRecord(domain.CK, "https://colonist.io/replay/same")
	dup, err = syncer.Append(context.Background(), second)
	require.NoError(t, err)
	assert.True(t, dup)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, "Internal!A8:D11", grid.writes[1].rng)
	assert.Equal(t, "⚠️", grid.writes[1].values[3][0])

	other := testRecord(domain.CK, "https://colonist.io/replay/different-viewer")
	dup, err = syncer.Append(context.Background(), other)
	require.NoError(t, err)
	assert.True(t, dup, "same start time is a duplicate")
}

func TestSyncer_OldGameFlag(t *testing.T) {
	grid := newMemoryGrid()
	syncer := NewSyncer(grid, testLayouts, zerolog.Nop()).
		WithClock(func() time.Time { return playedAt.Add(5 * time.Hour) })

	_, err := syncer.Append(context.Background(), testRecord(domain.Div2, "l"))
	require.NoError(t, err)
	assert.Equal(t, "Internal!H4:K7", grid.writes[0].rng)
	assert.Equal(t, "🕒", grid.writes[0].values[3][0])
}

func TestSyncer_Failures(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		grid := newMemoryGrid()
		grid.readErr = errors.New("boom")
		_, err := NewSyncer(grid, testLayouts, zerolog.Nop()).Append(context.Background(), testRecord(domain.Div1, "l"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
		assert.Empty(t, grid.writes)
	})

	t.Run("write failure", func(t *testing.T) {
		grid := newMemoryGrid()
		grid.writeErr = domain.Upstream("sheets write", errors.New("503"))
		_, err := NewSyncer(grid, testLayouts, zerolog.Nop()).Append(context.Background(), testRecord(domain.Div1, "l"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})

	t.Run("wrong seat count", func(t *testing.T) {
		grid := newMemoryGrid()
		rec := testRecord(domain.Div1, "l")
		rec.Scores = rec.Scores[:3]
		_, err := NewSyncer(grid, testLayouts, zerolog.Nop()).Append(context.Background(), rec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformedReplay))
		assert.Empty(t, grid.writes)
	})

	t.Run("unknown division", func(t *testing.T) {
		_, err := NewSyncer(newMemoryGrid(), testLayouts, zerolog.Nop()).NextFreeRow(context.Background(), domain.Division("9"))
		assert.Error(t, err)
	})
}

func TestSyncer_ConcurrentAppendsDoNotOverlap(t *testing.T) {
	grid := &appendingGrid{}
	syncer := NewSyncer(grid, testLayouts, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := syncer.Append(context.Background(), testRecord(domain.Div1, fmt.Sprintf("link-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, rng := range grid.ranges {
		assert.False(t, seen[rng], "range %s written twice", rng)
		seen[rng] = true
	}
	assert.Len(t, seen, 8)

	next, err := syncer.NextFreeRow(context.Background(), domain.Div1)
	require.NoError(t, err)
	assert.Equal(t, 4+8*domain.SeatCount, next)
}

// appendingGrid grows its single region with every write, like the real sheet.
type appendingGrid struct {
	mu     sync.Mutex
	rows   [][]string
	ranges []string
}

func (g *appendingGrid) ReadRange(context.Context, string, string) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]string(nil), g.rows...), nil
}

func (g *appendingGrid) WriteRange(_ context.Context, _ string, rng string, values [][]any) error {
	time.Sleep(time.Millisecond)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ranges = append(g.ranges, rng)
	for _, v := range values {
		g.rows = append(g.rows, []string{fmt.Sprint(v[0]), fmt.Sprint(v[1])})
	}
	return nil
}
