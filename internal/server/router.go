package server

import (
	"context"
	"net/http"

	"catan-standings/internal/domain"
	"catan-standings/internal/metrics"
	"catan-standings/internal/middleware"
	"catan-standings/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (*service.Result, error)
}

type PlayerLookup interface {
	GetPlayer(ctx context.Context, d domain.Division, site domain.Site, sourceName string) (*domain.Player, error)
	RefreshRoster(d domain.Division)
}

type GameLister interface {
	List(ctx context.Context, division domain.Division, limit int) ([]domain.StoredGame, error)
}

type StandingsServer struct {
	submissions Submitter
	players     PlayerLookup
	games       GameLister
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewStandingsServer(submissions Submitter, players PlayerLookup, games GameLister, m *metrics.Metrics, logger zerolog.Logger) *StandingsServer {
	return &StandingsServer{
		submissions: submissions,
		players:     players,
		games:       games,
		metrics:     m,
		logger:      logger,
	}
}

func (s *StandingsServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(s.logger))
	r.Use(middleware.Recover)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/submissions", s.submit)
		r.Get("/games", s.listGames)
		r.Get("/players/{division}/{site}/{name}", s.getPlayer)
		r.Delete("/roster", s.refreshRoster)
		r.Delete("/roster/{division}", s.refreshRoster)
	})

	return r
}
