// Package notify renders the chat reply for a submitted match.
package notify

import (
	"fmt"
	"strings"
	"time"

	"catan-standings/internal/domain"
)

const (
	OldGameWarning   = "*⚠️ Warning: this game was played more than 4 hours ago.*"
	DuplicateWarning = "*⚠️ Warning: this game has already been submitted.*"
)

// Format builds the reply posted after a submission. author is the plain
// username of whoever posted the link; trivia is left out when empty.
func Format(rec *domain.GameRecord, author, trivia string, now time.Time) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("**Division %s** [game](%s) posted by @%s (played <t:%d>)",
		rec.Division, rec.ReplayLink, author, rec.PlayedAt.Unix()))

	if rec.IsOldGame(now) {
		lines = append(lines, OldGameWarning)
	}
	if rec.IsDuplicate {
		lines = append(lines, DuplicateWarning)
	}

	lines = append(lines, "")

	for _, s := range rec.Scores {
		if s.ResolvedIdentity == nil && s.RosterName == "" {
			lines = append(lines, fmt.Sprintf("%s: %d VPs", s.SourceName, s.Score))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %d VPs", s.SourceName, s.DisplayName(), s.Score))
	}

	if trivia != "" {
		lines = append(lines, "", "*"+trivia+"*")
	}

	return strings.Join(lines, "\n")
}
