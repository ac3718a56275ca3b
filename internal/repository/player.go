package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
)

var siteColumns = map[domain.Site]string{
	domain.SiteColonist: "colonist_username",
	domain.SiteTwoSheep: "twosheep_username",
}

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// GetBySourceName finds the player known under a replay-site handle. It
// returns nil when nobody has been recorded with that handle.
func (r *PlayerRepository) GetBySourceName(ctx context.Context, site domain.Site, name string) (*domain.Player, error) {
	column, ok := siteColumns[site]
	if !ok {
		return nil, fmt.Errorf("unknown site %q", site)
	}

	var (
		p                  domain.Player
		discordID          sql.NullString
		colonist, twoSheep sql.NullString
	)
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT discord_id, discord_name, colonist_username, twosheep_username FROM players WHERE %s = ?`, column),
		name,
	).Scan(&discordID, &p.DiscordName, &colonist, &twoSheep)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("site", string(site)).Str("name", name).Msg("failed to get player")
		return nil, err
	}

	p.DiscordID, p.ColonistUsername, p.TwoSheepUsername = discordID.String, colonist.String, twoSheep.String
	return &p, nil
}

// upsertPlayer records the roster mapping carried by a resolved seat and
// returns its row id. Seats without a roster name are not recorded.
func upsertPlayer(ctx context.Context, tx *sql.Tx, site domain.Site, s domain.PlayerScore) (sql.NullInt64, error) {
	if s.RosterName == "" {
		return sql.NullInt64{}, nil
	}
	column, ok := siteColumns[site]
	if !ok {
		return sql.NullInt64{}, fmt.Errorf("unknown site %q", site)
	}

	var discordID sql.NullString
	if s.ResolvedIdentity != nil {
		discordID = sql.NullString{String: s.ResolvedIdentity.ID, Valid: true}
	}

	var uid int64
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO players (discord_id, discord_name, %[1]s) VALUES (?, ?, ?)
		ON CONFLICT(%[1]s) DO UPDATE SET
			discord_id = COALESCE(excluded.discord_id, players.discord_id),
			discord_name = excluded.discord_name,
			updated_at = CURRENT_TIMESTAMP
		RETURNING uid`, column),
		discordID, s.RosterName, s.SourceName,
	).Scan(&uid)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to upsert player %s: %w", s.SourceName, err)
	}
	return sql.NullInt64{Int64: uid, Valid: true}, nil
}
