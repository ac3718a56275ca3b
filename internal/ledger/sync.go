package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
)

// Syncer treats each division region as an append-only log: rows are
// never deleted, so the next free row is the header row plus the number of
// occupied rows. Nothing here can verify that other writers keep the region
// gap-free.
type Syncer struct {
	grid    Grid
	layouts map[domain.Division]Layout
	locks   map[domain.Division]*sync.Mutex
	now     func() time.Time
	logger  zerolog.Logger
}

func NewSyncer(grid Grid, layouts map[domain.Division]Layout, logger zerolog.Logger) *Syncer {
	locks := make(map[domain.Division]*sync.Mutex, len(layouts))
	for d := range layouts {
		locks[d] = &sync.Mutex{}
	}
	return &Syncer{grid: grid, layouts: layouts, locks: locks, now: time.Now, logger: logger}
}

// WithClock replaces the clock used for the old-game flag.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

func (s *Syncer) layout(d domain.Division) (Layout, *sync.Mutex, error) {
	l, ok := s.layouts[d]
	if !ok {
		return Layout{}, nil, fmt.Errorf("%w: %s", domain.ErrDivisionNotConfigured, d)
	}
	return l, s.locks[d], nil
}

// NextFreeRow returns the first unoccupied row of a division's region.
func (s *Syncer) NextFreeRow(ctx context.Context, d domain.Division) (int, error) {
	l, mu, err := s.layout(d)
	if err != nil {
		return 0, err
	}
	mu.Lock()
	defer mu.Unlock()

	rows, err := s.grid.ReadRange(ctx, l.SpreadsheetID, l.readRange())
	if err != nil {
		return 0, ledgerError("read", l, err)
	}
	return FirstFreeRow(l.HeaderRow, len(rows)), nil
}

// Append checks the record against the existing region, marks it as a
// duplicate when its link or timestamp is already present, and writes its
// four rows after the last occupied one. Appends to the same division are
// serialized.
func (s *Syncer) Append(ctx context.Context, rec *domain.GameRecord) (bool, error) {
	l, mu, err := s.layout(rec.Division)
	if err != nil {
		return false, err
	}
	if len(rec.Scores) != domain.SeatCount {
		return false, domain.Malformed("score data invalid: %d seats", len(rec.Scores))
	}

	mu.Lock()
	defer mu.Unlock()

	existing, err := s.grid.ReadRange(ctx, l.SpreadsheetID, l.readRange())
	if err != nil {
		return false, ledgerError("read", l, err)
	}

	rec.IsDuplicate = IsDuplicate(existing, rec.ReplayLink, domain.ISOTimestamp(rec.PlayedAt))

	firstRow := FirstFreeRow(l.HeaderRow, len(existing))
	rng := l.writeRange(firstRow)
	if err := s.grid.WriteRange(ctx, l.SpreadsheetID, rng, Serialize(rec, s.now())); err != nil {
		return rec.IsDuplicate, ledgerError("write", l, err)
	}

	s.logger.Info().
		Str("division", string(rec.Division)).
		Str("range", rng).
		Str("replay_link", rec.ReplayLink).
		Bool("duplicate", rec.IsDuplicate).
		Msg("ledger rows appended")

	return rec.IsDuplicate, nil
}

// IsDuplicate reports whether link or timestamp appears in the first cell
// of any existing row. The timestamp check catches sources that mint a
// different link per viewer; two games starting in the same second are
// reported as duplicates.
func IsDuplicate(rows [][]string, link, timestamp string) bool {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if row[0] == link || row[0] == timestamp {
			return true
		}
	}
	return false
}

func FirstFreeRow(headerRow, occupied int) int {
	return headerRow + occupied
}

// Serialize zips one metadata field per row with each seat's name and score.
func Serialize(rec *domain.GameRecord, now time.Time) [][]any {
	md := rec.LedgerMetadata(now)
	rows := make([][]any, 0, len(rec.Scores))
	for i, score := range rec.Scores {
		rows = append(rows, []any{md[i], score.LedgerName(), score.Score})
	}
	return rows
}

func ledgerError(op string, l Layout, err error) error {
	if domain.IsUpstream(err) {
		return fmt.Errorf("ledger %s %s: %w", op, l.Tab, err)
	}
	return domain.Upstream("ledger "+op+" "+l.Tab, err)
}
