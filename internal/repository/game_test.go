package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"catan-standings/internal/database"
	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var playedAt = time.Date(2025, 1, 3, 18, 4, 5, 0, time.UTC)

func record(link string, played time.Time) *domain.GameRecord {
	return &domain.GameRecord{
		Division:   domain.Div1,
		Site:       domain.SiteColonist,
		ReplayLink: link,
		PlayedAt:   played,
		RawJSON:    []byte(`{"eventHistory":{}}`),
		Scores: []domain.PlayerScore{
			{SourceName: "RoadBuilder", RosterName: "roady", ResolvedIdentity: &domain.Member{ID: "42"}, Score: 10},
			{SourceName: "Settler#1234", RosterName: "settler", Score: 7},
			{SourceName: "OreMiner", Score: 4},
			{SourceName: "Sheepish", Score: 6},
		},
	}
}

func TestGameRepository_SaveAndList(t *testing.T) {
	db := openDB(t)
	games := NewGameRepository(db, zerolog.Nop())
	ctx := context.Background()

	first, err := games.Save(ctx, record("https://colonist.io/replay/a", playedAt), "poster", playedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, first, 21)

	dup := record("https://colonist.io/replay/b", playedAt.Add(time.Hour))
	dup.IsDuplicate = true
	second, err := games.Save(ctx, dup, "poster", playedAt.Add(10*time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	list, err := games.List(ctx, domain.Div1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, second, list[0].SubmissionID)
	assert.True(t, list[0].IsDuplicate)
	assert.True(t, list[0].IsOldGame)
	assert.Equal(t, first, list[1].SubmissionID)
	assert.False(t, list[1].IsDuplicate)
	assert.False(t, list[1].IsOldGame)
	assert.True(t, playedAt.Equal(list[1].PlayedAt))
	assert.Equal(t, domain.SiteColonist, list[1].Site)
	assert.Equal(t, "poster", list[1].SubmittedBy)

	assert.Equal(t, []domain.StoredSeat{
		{Name: "roady", Score: 10, DiscordID: "42"},
		{Name: "settler", Score: 7},
		{Name: "OreMiner (FALLBACK)", Score: 4},
		{Name: "Sheepish (FALLBACK)", Score: 6},
	}, list[1].Seats)

	other, err := games.List(ctx, domain.CK, 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	limited, err := games.List(ctx, domain.Div1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGameRepository_StoresRawJSON(t *testing.T) {
	db := openDB(t)
	games := NewGameRepository(db, zerolog.Nop())

	id, err := games.Save(context.Background(), record("l", playedAt), "", playedAt)
	require.NoError(t, err)

	var raw string
	require.NoError(t, db.QueryRow(`SELECT game_json FROM games WHERE submission_id = ?`, id).Scan(&raw))
	assert.JSONEq(t, `{"eventHistory":{}}`, raw)
}

func TestPlayerRepository_RecordsRosterMappings(t *testing.T) {
	db := openDB(t)
	games := NewGameRepository(db, zerolog.Nop())
	players := NewPlayerRepository(db, zerolog.Nop())
	ctx := context.Background()

	_, err := games.Save(ctx, record("l1", playedAt), "", playedAt)
	require.NoError(t, err)

	p, err := players.GetBySourceName(ctx, domain.SiteColonist, "RoadBuilder")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.Player{DiscordID: "42", DiscordName: "roady", ColonistUsername: "RoadBuilder"}, *p)

	// a later game without a live member keeps the known discord id
	again := record("l2", playedAt)
	again.Scores[0].RosterName = "roady2"
	again.Scores[0].ResolvedIdentity = nil
	_, err = games.Save(ctx, again, "", playedAt)
	require.NoError(t, err)

	p, err = players.GetBySourceName(ctx, domain.SiteColonist, "RoadBuilder")
	require.NoError(t, err)
	assert.Equal(t, "42", p.DiscordID)
	assert.Equal(t, "roady2", p.DiscordName)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM players`).Scan(&count))
	assert.Equal(t, 2, count)

	missing, err := players.GetBySourceName(ctx, domain.SiteColonist, "OreMiner")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = players.GetBySourceName(ctx, domain.SiteTwoSheep, "RoadBuilder")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = players.GetBySourceName(ctx, domain.Site("elsewhere"), "x")
	assert.Error(t, err)
}
