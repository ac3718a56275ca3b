package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catan-standings/internal/domain"
	"catan-standings/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultGamesLimit = 20
	maxGamesLimit     = 200
)

type submitRequest struct {
	Division string `json:"division"`
	Content  string `json:"content"`
	Author   string `json:"author"`
}

type scoreResponse struct {
	SourceName string `json:"source_name"`
	LedgerName string `json:"ledger_name"`
	Display    string `json:"display"`
	Score      int    `json:"score"`
}

type submitResponse struct {
	SubmissionID string          `json:"submission_id,omitempty"`
	Division     domain.Division `json:"division"`
	ReplayLink   string          `json:"replay_link"`
	PlayedAt     string          `json:"played_at"`
	Duplicate    bool            `json:"duplicate"`
	Scores       []scoreResponse `json:"scores"`
	Trivia       string          `json:"trivia,omitempty"`
	Message      string          `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *StandingsServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *StandingsServer) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	div, err := domain.ParseDivision(req.Division)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.submissions.Submit(r.Context(), service.Submission{
		Division: div,
		Content:  req.Content,
		Author:   req.Author,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	rec := res.Record
	resp := submitResponse{
		SubmissionID: res.SubmissionID,
		Division:     rec.Division,
		ReplayLink:   rec.ReplayLink,
		PlayedAt:     domain.ISOTimestamp(rec.PlayedAt),
		Duplicate:    rec.IsDuplicate,
		Trivia:       res.Trivia,
		Message:      res.Message,
	}
	for _, sc := range rec.Scores {
		resp.Scores = append(resp.Scores, scoreResponse{
			SourceName: sc.SourceName,
			LedgerName: sc.LedgerName(),
			Display:    sc.DisplayName(),
			Score:      sc.Score,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *StandingsServer) listGames(w http.ResponseWriter, r *http.Request) {
	div, err := domain.ParseDivision(r.URL.Query().Get("division"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultGamesLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxGamesLimit)
	}

	games, err := s.games.List(r.Context(), div, limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *StandingsServer) getPlayer(w http.ResponseWriter, r *http.Request) {
	div, err := domain.ParseDivision(chi.URLParam(r, "division"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	site := domain.Site(chi.URLParam(r, "site"))

	player, err := s.players.GetPlayer(r.Context(), div, site, chi.URLParam(r, "name"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if player == nil {
		writeError(w, http.StatusNotFound, "player not on roster")
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *StandingsServer) refreshRoster(w http.ResponseWriter, r *http.Request) {
	var div domain.Division
	if v := chi.URLParam(r, "division"); v != "" {
		d, err := domain.ParseDivision(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		div = d
	}
	s.players.RefreshRoster(div)
	w.WriteHeader(http.StatusNoContent)
}

func (s *StandingsServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNoReplayLink), errors.Is(err, domain.ErrMalformedReplay):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrDivisionNotConfigured):
		status = http.StatusBadRequest
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
