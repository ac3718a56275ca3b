package domain

import (
	"fmt"
	"time"
)

type Division string

const (
	Div1 Division = "1"
	Div2 Division = "2"
	CK   Division = "CK"
)

var Divisions = []Division{Div1, Div2, CK}

func ParseDivision(s string) (Division, error) {
	for _, d := range Divisions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown division %q", s)
}

type Site string

const (
	SiteColonist Site = "colonist.io"
	SiteTwoSheep Site = "twosheep.io"
)

// SeatCount is the number of seats in every finished match.
const SeatCount = 4

// OldGameAge is how long after it was played a game is flagged as old.
const OldGameAge = 4 * time.Hour

// Member is a live chat-platform member that a roster name can resolve to.
type Member struct {
	ID         string
	Username   string
	GlobalName string
	Nick       string
}

func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

type PlayerScore struct {
	SourceName string
	// RosterName is the platform identity text from the roster, empty when unmapped.
	RosterName       string
	ResolvedIdentity *Member
	Score            int
}

// DisplayName is the label used in notifications.
func (p PlayerScore) DisplayName() string {
	if p.ResolvedIdentity != nil {
		return p.ResolvedIdentity.Mention()
	}
	if p.RosterName != "" {
		return "@" + p.RosterName
	}
	return p.SourceName
}

// LedgerName is the label written to the ledger name column.
func (p PlayerScore) LedgerName() string {
	if p.RosterName != "" {
		return p.RosterName
	}
	return p.SourceName + " (FALLBACK)"
}

type GameRecord struct {
	Division    Division
	Site        Site
	ReplayLink  string
	PlayedAt    time.Time
	IsDuplicate bool
	Scores      []PlayerScore
	RawJSON     []byte
}

func (g *GameRecord) IsOldGame(now time.Time) bool {
	return g.PlayedAt.Before(now.Add(-OldGameAge))
}

func (g *GameRecord) HasWarning(now time.Time) bool {
	return g.IsDuplicate || g.IsOldGame(now)
}

// LedgerMetadata is the per-match metadata smeared one field per row over
// the first four ledger rows of a match.
func (g *GameRecord) LedgerMetadata(now time.Time) [SeatCount]string {
	flags := ""
	if g.IsDuplicate {
		flags += "⚠️"
	}
	if g.IsOldGame(now) {
		flags += "🕒"
	}
	return [SeatCount]string{g.ReplayLink, ISOTimestamp(g.PlayedAt), "", flags}
}

// ISOTimestamp renders t in UTC the way the ledger has always stored it:
// seconds precision, microseconds only when non-zero, explicit +00:00 offset.
// Sub-microsecond parts are rounded.
func ISOTimestamp(t time.Time) string {
	t = t.UTC().Round(time.Microsecond)
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s + "+00:00"
}

// StoredGame is a submitted match as kept in the local database mirror.
type StoredGame struct {
	SubmissionID string       `json:"submission_id"`
	Division     Division     `json:"division"`
	Site         Site         `json:"site"`
	ReplayLink   string       `json:"replay_link"`
	PlayedAt     time.Time    `json:"played_at"`
	IsDuplicate  bool         `json:"is_duplicate"`
	IsOldGame    bool         `json:"is_old_game"`
	SubmittedBy  string       `json:"submitted_by"`
	CreatedAt    time.Time    `json:"created_at"`
	Seats        []StoredSeat `json:"seats"`
}

type StoredSeat struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	DiscordID string `json:"discord_id,omitempty"`
}

// Player links a chat identity to its replay-site handles.
type Player struct {
	DiscordID        string `json:"discord_id,omitempty"`
	DiscordName      string `json:"discord_name"`
	ColonistUsername string `json:"colonist_username,omitempty"`
	TwoSheepUsername string `json:"twosheep_username,omitempty"`
}
