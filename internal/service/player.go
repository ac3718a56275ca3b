package service

import (
	"context"
	"fmt"
	"net/url"

	"catan-standings/internal/constants"
	"catan-standings/internal/domain"
	"catan-standings/internal/metrics"

	"github.com/rs/zerolog"
)

type RosterLookup interface {
	Translate(ctx context.Context, d domain.Division, sourceName string) (string, bool, error)
	Invalidate(d domain.Division)
	InvalidateAll()
}

type PlayerStore interface {
	GetBySourceName(ctx context.Context, site domain.Site, name string) (*domain.Player, error)
}

type PlayerService struct {
	roster  RosterLookup
	players PlayerStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewPlayerService(roster RosterLookup, players PlayerStore, m *metrics.Metrics, logger zerolog.Logger) *PlayerService {
	return &PlayerService{roster: roster, players: players, metrics: m, logger: logger}
}

// GetPlayer resolves a replay-site handle against the division roster and
// completes it with what the local mirror knows. It returns nil when the
// roster has no entry for the handle.
func (s *PlayerService) GetPlayer(ctx context.Context, d domain.Division, site domain.Site, sourceName string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	sourceName, err := url.PathUnescape(sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape name: %w", err)
	}

	s.logger.Info().Str("division", string(d)).Str("site", string(site)).Str("name", sourceName).Msg("getting player")

	discordName, ok, err := s.roster.Translate(ctx, d, sourceName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	player := &domain.Player{DiscordName: discordName}
	switch site {
	case domain.SiteColonist:
		player.ColonistUsername = sourceName
	case domain.SiteTwoSheep:
		player.TwoSheepUsername = sourceName
	default:
		return nil, fmt.Errorf("unknown site %q", site)
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	stored, err := s.players.GetBySourceName(dbCtx, site, sourceName)
	if err != nil {
		s.logger.Warn().Err(err).Str("name", sourceName).Msg("failed to read stored player")
	} else if stored != nil {
		player.DiscordID = stored.DiscordID
		if player.ColonistUsername == "" {
			player.ColonistUsername = stored.ColonistUsername
		}
		if player.TwoSheepUsername == "" {
			player.TwoSheepUsername = stored.TwoSheepUsername
		}
	}

	return player, nil
}

// RefreshRoster drops the cached roster of one division, or of every
// division when d is empty.
func (s *PlayerService) RefreshRoster(d domain.Division) {
	if d == "" {
		s.roster.InvalidateAll()
		for _, div := range domain.Divisions {
			s.metrics.RosterInvalidations.WithLabelValues(string(div)).Inc()
		}
		s.logger.Info().Msg("all rosters invalidated")
		return
	}
	s.roster.Invalidate(d)
	s.metrics.RosterInvalidations.WithLabelValues(string(d)).Inc()
	s.logger.Info().Str("division", string(d)).Msg("roster invalidated")
}
