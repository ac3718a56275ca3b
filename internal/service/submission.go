package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catan-standings/internal/constants"
	"catan-standings/internal/domain"
	"catan-standings/internal/metrics"
	"catan-standings/internal/notify"
	"catan-standings/internal/replay"
	"catan-standings/internal/trivia"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type ReplayFetcher interface {
	FetchReplay(ctx context.Context, site domain.Site, slug string) ([]byte, error)
}

type IdentityResolver interface {
	ResolveScores(ctx context.Context, d domain.Division, members []domain.Member, scores []domain.PlayerScore) error
}

type LedgerAppender interface {
	Append(ctx context.Context, rec *domain.GameRecord) (bool, error)
}

type GameStore interface {
	Save(ctx context.Context, rec *domain.GameRecord, submittedBy string, now time.Time) (string, error)
}

// Submission is one message that may carry a replay link.
type Submission struct {
	Division domain.Division
	Content  string
	// Members are the live chat members identities are resolved against.
	Members []domain.Member
	Author  string
}

type Result struct {
	SubmissionID string
	Record       *domain.GameRecord
	Trivia       string
	Message      string
}

type SubmissionService struct {
	replays ReplayFetcher
	roster  IdentityResolver
	ledger  LedgerAppender
	games   GameStore
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

func NewSubmissionService(replays ReplayFetcher, roster IdentityResolver, ledger LedgerAppender, games GameStore, m *metrics.Metrics, logger zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		replays: replays,
		roster:  roster,
		ledger:  ledger,
		games:   games,
		metrics: m,
		now:     time.Now,
		logger:  logger,
	}
}

// Submit runs a message through fetch, normalize, identity resolution and
// the ledger append. The ledger is the source of truth: a failure before or
// during the append fails the submission, a failure of the local mirror
// only gets logged.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission) (res *Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	timer := prometheus.NewTimer(s.metrics.SubmitDuration.WithLabelValues(string(sub.Division)))
	defer func() {
		timer.ObserveDuration()
		s.metrics.Submissions.WithLabelValues(string(sub.Division), outcome(err)).Inc()
	}()

	log := s.logger.With().Str("division", string(sub.Division)).Str("author", sub.Author).Logger()

	link, ok := replay.ExtractLink(sub.Content, sub.Division)
	if !ok {
		return nil, domain.ErrNoReplayLink
	}
	log = log.With().Str("link", link.URL()).Logger()
	log.Info().Msg("processing submission")

	raw, err := s.replays.FetchReplay(ctx, link.Site, link.Slug)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch replay")
		return nil, fmt.Errorf("failed to fetch replay: %w", err)
	}

	rec, err := replay.Normalize(link, raw, sub.Division)
	if err != nil {
		log.Error().Err(err).Msg("failed to normalize replay")
		return nil, err
	}

	if err := s.roster.ResolveScores(ctx, sub.Division, sub.Members, rec.Scores); err != nil {
		log.Error().Err(err).Msg("failed to resolve identities")
		return nil, fmt.Errorf("failed to resolve identities: %w", err)
	}

	dup, err := s.ledger.Append(ctx, rec)
	if err != nil {
		log.Error().Err(err).Msg("failed to append to ledger")
		return nil, fmt.Errorf("failed to append to ledger: %w", err)
	}
	s.metrics.LedgerRowsWritten.WithLabelValues(string(sub.Division)).Add(domain.SeatCount)
	if dup {
		s.metrics.Duplicates.WithLabelValues(string(sub.Division)).Inc()
	}

	now := s.now()
	res = &Result{Record: rec}

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	id, saveErr := s.games.Save(dbCtx, rec, sub.Author, now)
	dbCancel()
	if saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to mirror game locally")
	} else {
		res.SubmissionID = id
	}

	if rec.Site == domain.SiteColonist {
		res.Trivia, _ = trivia.Select(rec.RawJSON)
	}
	res.Message = notify.Format(rec, sub.Author, res.Trivia, now)

	log.Info().
		Str("submission_id", res.SubmissionID).
		Bool("duplicate", rec.IsDuplicate).
		Bool("old_game", rec.IsOldGame(now)).
		Msg("submission recorded")
	return res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoReplayLink):
		return "no_link"
	case errors.Is(err, domain.ErrMalformedReplay):
		return "malformed"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream"
	default:
		return "error"
	}
}
