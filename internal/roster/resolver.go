// Package roster maps replay-site handles to chat-platform identities.
package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catan-standings/internal/config"
	"catan-standings/internal/constants"
	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// RangeReader reads A1 ranges from the roster spreadsheet.
type RangeReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
}

// Source locates a division's roster.
type Source struct {
	SpreadsheetID string
	Tab           string
	Ranges        []string
}

func Sources(cfg *config.Config) map[domain.Division]Source {
	src := func(id string) Source {
		return Source{SpreadsheetID: id, Tab: constants.NamesTabName, Ranges: constants.NamesRanges}
	}
	sources := map[domain.Division]Source{
		domain.Div1: src(cfg.SpreadsheetID),
		domain.Div2: src(cfg.SpreadsheetID),
	}
	if cfg.Enabled(domain.CK) {
		sources[domain.CK] = src(cfg.CKSpreadsheetID)
	}
	return sources
}

type entry struct {
	names     map[string]string // source handle -> platform identity
	fetchedAt time.Time
}

// Resolver caches one translation table per division. A zero TTL keeps
// entries until they are invalidated explicitly.
type Resolver struct {
	reader  RangeReader
	sources map[domain.Division]Source
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	mu      sync.RWMutex
	entries map[domain.Division]entry
	gen     map[domain.Division]uint64
	group   singleflight.Group
}

func NewResolver(reader RangeReader, sources map[domain.Division]Source, ttl time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		reader:  reader,
		sources: sources,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: make(map[domain.Division]entry),
		gen:     make(map[domain.Division]uint64),
	}
}

func (r *Resolver) Invalidate(d domain.Division) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, d)
	r.gen[d]++
}

func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for d := range r.entries {
		delete(r.entries, d)
	}
	for _, d := range domain.Divisions {
		r.gen[d]++
	}
}

// Table returns the handle -> identity table of a division, fetching it when
// absent or expired. Concurrent fetches for the same division and cache
// generation share one call, so a caller arriving after Invalidate never
// joins a fetch that started before it. The shared fetch outlives any single
// caller's cancellation.
func (r *Resolver) Table(ctx context.Context, d domain.Division) (map[string]string, error) {
	r.mu.RLock()
	e, ok := r.entries[d]
	gen := r.gen[d]
	r.mu.RUnlock()
	if ok && (r.ttl <= 0 || r.now().Sub(e.fetchedAt) < r.ttl) {
		return e.names, nil
	}

	key := fmt.Sprintf("%s#%d", d, gen)
	ch := r.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RosterFetchTimeout)
		defer cancel()

		names, err := r.fetch(fetchCtx, d)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gen[d] == gen {
			r.entries[d] = entry{names: names, fetchedAt: r.now()}
		}
		r.mu.Unlock()
		return names, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]string), nil
	}
}

// Translate looks up the platform identity registered for a source handle.
func (r *Resolver) Translate(ctx context.Context, d domain.Division, sourceName string) (string, bool, error) {
	names, err := r.Table(ctx, d)
	if err != nil {
		return "", false, err
	}
	name, ok := names[sourceName]
	return name, ok, nil
}

// ResolveScores fills RosterName and ResolvedIdentity of every seat it can.
// Unmapped handles and roster names without a live member are left as is.
func (r *Resolver) ResolveScores(ctx context.Context, d domain.Division, members []domain.Member, scores []domain.PlayerScore) error {
	names, err := r.Table(ctx, d)
	if err != nil {
		return err
	}

	for i := range scores {
		rosterName, ok := names[scores[i].SourceName]
		if !ok || rosterName == "" {
			r.logger.Debug().Str("division", string(d)).Str("source_name", scores[i].SourceName).Msg("no roster entry")
			continue
		}
		scores[i].RosterName = rosterName
		scores[i].ResolvedIdentity = FindMember(members, rosterName)
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context, d domain.Division) (map[string]string, error) {
	src, ok := r.sources[d]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDivisionNotConfigured, d)
	}

	results := make([][][]string, len(src.Ranges))
	g, gCtx := errgroup.WithContext(ctx)
	for i, rng := range src.Ranges {
		g.Go(func() error {
			rows, err := r.reader.ReadRange(gCtx, src.SpreadsheetID, src.Tab+"!"+rng)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error().Err(err).Str("division", string(d)).Msg("failed to fetch roster")
		if domain.IsUpstream(err) {
			return nil, err
		}
		return nil, domain.Upstream("roster", err)
	}

	// first column is the platform identity, second the replay-site handle;
	// later ranges override earlier ones
	names := make(map[string]string)
	for _, rows := range results {
		for _, row := range rows {
			if len(row) < 2 || row[1] == "" {
				continue
			}
			names[row[1]] = row[0]
		}
	}

	r.logger.Info().Str("division", string(d)).Int("entries", len(names)).Msg("roster fetched")
	return names, nil
}
