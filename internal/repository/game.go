package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catan-standings/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Save mirrors a synced match with its four seats and returns the generated
// submission id. Everything is written in one transaction.
func (r *GameRepository) Save(ctx context.Context, rec *domain.GameRecord, submittedBy string, now time.Time) (string, error) {
	submissionID, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate submission id: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw sql.NullString
	if len(rec.RawJSON) > 0 {
		raw = sql.NullString{String: string(rec.RawJSON), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO games (submission_id, division, site, replay_link, played_at, is_duplicate, is_old_game, game_json, submitted_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submissionID, string(rec.Division), string(rec.Site), rec.ReplayLink, rec.PlayedAt.UTC(),
		rec.IsDuplicate, rec.IsOldGame(now), raw, submittedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert game: %w", err)
	}
	gameID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	for seat, s := range rec.Scores {
		playerID, err := upsertPlayer(ctx, tx, rec.Site, s)
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, seat, name, score) VALUES (?, ?, ?, ?, ?)`,
			gameID, playerID, seat, s.LedgerName(), s.Score,
		); err != nil {
			return "", fmt.Errorf("failed to insert seat %d: %w", seat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit game: %w", err)
	}

	r.logger.Debug().Str("submission_id", submissionID).Str("division", string(rec.Division)).Msg("game stored")
	return submissionID, nil
}

// List returns the most recently played games of a division, newest first.
func (r *GameRepository) List(ctx context.Context, division domain.Division, limit int) ([]domain.StoredGame, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, submission_id, division, site, replay_link, played_at, is_duplicate, is_old_game, submitted_by, created_at
		FROM games
		WHERE division = ?
		ORDER BY played_at DESC, uid DESC
		LIMIT ?`, string(division), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		games []domain.StoredGame
		ids   []int64
	)
	for rows.Next() {
		var (
			g              domain.StoredGame
			uid            int64
			division, site string
		)
		if err := rows.Scan(&uid, &g.SubmissionID, &division, &site, &g.ReplayLink, &g.PlayedAt,
			&g.IsDuplicate, &g.IsOldGame, &g.SubmittedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Division, g.Site = domain.Division(division), domain.Site(site)
		games = append(games, g)
		ids = append(ids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		seats, err := r.seats(ctx, id)
		if err != nil {
			return nil, err
		}
		games[i].Seats = seats
	}

	if games == nil {
		return []domain.StoredGame{}, nil
	}
	return games, nil
}

func (r *GameRepository) seats(ctx context.Context, gameID int64) ([]domain.StoredSeat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gp.name, gp.score, p.discord_id
		FROM game_players gp
		LEFT JOIN players p ON p.uid = gp.player_id
		WHERE gp.game_id = ?
		ORDER BY gp.seat`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []domain.StoredSeat
	for rows.Next() {
		var (
			s         domain.StoredSeat
			discordID sql.NullString
		)
		if err := rows.Scan(&s.Name, &s.Score, &discordID); err != nil {
			return nil, err
		}
		s.DiscordID = discordID.String
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
