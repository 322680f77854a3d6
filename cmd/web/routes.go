package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/lan-tournament/internal/httputil"
	"github.com/AdamBeresnev/lan-tournament/internal/live"
	"github.com/AdamBeresnev/lan-tournament/internal/middleware"
	"github.com/AdamBeresnev/lan-tournament/internal/service"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type server struct {
	tournaments *service.TournamentService
	matches     *service.MatchService
	hub         *live.Hub
	adminToken  string
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.TeamHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/tournaments/{tournamentID}", s.hub.ServeWS)

	r.Get("/tournaments/{id}", s.getTournament)
	r.Get("/tournaments/{id}/teams", s.listTeams)
	r.Get("/tournaments/{id}/stages", s.listStages)
	r.Get("/stages/{id}", s.stageOverview)
	r.Get("/stages/{id}/winner", s.bracketWinner)
	r.Get("/stages/{id}/leaderboard", s.groupLeaderboard)
	r.Get("/stages/{id}/standings", s.swissStandings)
	r.Get("/matches/{id}", s.getMatch)

	r.With(middleware.RequireTeam).Post("/matches/{id}/scores", s.recordScore)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.adminToken))

		r.Post("/tournaments", s.createTournament)
		r.Post("/tournaments/{id}/teams", s.addTeam)
		r.Post("/tournaments/{id}/teams/import", s.importTeams)
		r.Put("/teams/{id}/validation", s.validateTeam)

		r.Post("/tournaments/{id}/brackets", s.createBracket)
		r.Post("/tournaments/{id}/groups", s.createGroups)
		r.Post("/tournaments/{id}/swiss", s.createSwiss)

		r.Put("/stages/{id}/seeding", s.seedBracket)
		r.Post("/stages/{id}/regenerate", s.regenerateStage)
		r.Delete("/stages/{id}", s.deleteStage)
		r.Post("/stages/{id}/swiss-rounds/{round}", s.generateSwissRound)
		r.Post("/stages/{id}/launch", s.launchMatches)
	})

	return r
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := s.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (s *server) listTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	teams, err := s.tournaments.ListTeams(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to list teams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

func (s *server) listStages(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	stages, err := s.tournaments.ListStages(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to list stages", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stages)
}

func (s *server) stageOverview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	overview, err := s.tournaments.StageOverview(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get stage", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func (s *server) bracketWinner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	winner, decided, err := s.tournaments.BracketWinner(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket winner", err)
		return
	}
	if !decided {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"decided": false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"decided": true, "winner": winner})
}

func (s *server) groupLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	board, err := s.tournaments.GroupLeaderboard(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get leaderboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, board)
}

func (s *server) swissStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	records, err := s.tournaments.SwissStandings(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get standings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (s *server) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	m, err := s.matches.GetMatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type scoreRequest struct {
	RoundNumber  int               `json:"round_number"`
	IndexInRound int               `json:"index_in_round"`
	Scores       map[uuid.UUID]int `json:"scores"`
	Times        []int             `json:"times"`
}

func (s *server) recordScore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	teamID, _ := middleware.GetTeamIDFromContext(r.Context())

	var req scoreRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid score", err)
		return
	}
	m, err := s.matches.RecordScore(r.Context(), service.ScoreSubmission{
		MatchID:      id,
		RoundNumber:  req.RoundNumber,
		IndexInRound: req.IndexInRound,
		SubmittedBy:  teamID,
		Scores:       req.Scores,
		Times:        req.Times,
	})
	if err != nil {
		httputil.Error(w, "Failed to record score", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type tournamentRequest struct {
	Name          string `json:"name"`
	MaxTeams      int    `json:"max_teams"`
	TeamsPerMatch int    `json:"teams_per_match"`
}

func (s *server) createTournament(w http.ResponseWriter, r *http.Request) {
	var req tournamentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid tournament", err)
		return
	}
	if req.TeamsPerMatch == 0 {
		req.TeamsPerMatch = 2
	}
	id, err := s.tournaments.CreateTournament(r.Context(), req.Name, req.MaxTeams, req.TeamsPerMatch)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

type teamRequest struct {
	Name string `json:"name"`
	Seed int    `json:"seed"`
}

func (s *server) addTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req teamRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid team", err)
		return
	}
	teamID, err := s.tournaments.AddTeam(r.Context(), id, req.Name, req.Seed)
	if err != nil {
		httputil.Error(w, "Failed to add team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": teamID})
}

// importTeams takes a plain text body, one "name" or "name;seed" per line.
func (s *server) importTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httputil.BadRequest(w, "Invalid body", err)
		return
	}
	validated, _ := strconv.ParseBool(r.URL.Query().Get("validated"))

	teams, err := s.tournaments.ImportTeams(r.Context(), id, string(body), validated)
	if err != nil {
		httputil.Error(w, "Failed to import teams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, teams)
}

func (s *server) validateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Validated bool `json:"validated"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid validation", err)
		return
	}
	if err := s.tournaments.ValidateTeam(r.Context(), id, req.Validated); err != nil {
		httputil.Error(w, "Failed to validate team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bracketRequest struct {
	Name        string                 `json:"name"`
	TeamCount   int                    `json:"team_count"`
	BracketType tournament.BracketType `json:"bracket_type"`
	BoType      tournament.BoType      `json:"bo_type"`
	Teams       []uuid.UUID            `json:"teams"`
}

func (s *server) createBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req := bracketRequest{BracketType: tournament.SingleElimination, BoType: tournament.BO1}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid bracket", err)
		return
	}
	stageID, err := s.tournaments.CreateBracket(r.Context(), service.BracketParams{
		TournamentID: id,
		Name:         req.Name,
		TeamCount:    req.TeamCount,
		BracketType:  req.BracketType,
		BoType:       req.BoType,
		Teams:        req.Teams,
	})
	if err != nil {
		httputil.Error(w, "Failed to create bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": stageID})
}

type groupRequest struct {
	Count         int               `json:"count"`
	TeamsPerGroup int               `json:"teams_per_group"`
	Names         []string          `json:"names"`
	UseSeeding    bool              `json:"use_seeding"`
	BoType        tournament.BoType `json:"bo_type"`
}

func (s *server) createGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req := groupRequest{BoType: tournament.BO1}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid groups", err)
		return
	}
	ids, err := s.tournaments.CreateGroups(r.Context(), service.GroupParams{
		TournamentID:  id,
		Count:         req.Count,
		TeamsPerGroup: req.TeamsPerGroup,
		Names:         req.Names,
		UseSeeding:    req.UseSeeding,
		BoType:        req.BoType,
	})
	if err != nil {
		httputil.Error(w, "Failed to create groups", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string][]uuid.UUID{"ids": ids})
}

type swissRequest struct {
	Name       string            `json:"name"`
	MinScore   int               `json:"min_score"`
	UseSeeding bool              `json:"use_seeding"`
	BoType     tournament.BoType `json:"bo_type"`
}

func (s *server) createSwiss(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req := swissRequest{BoType: tournament.BO1}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid swiss round", err)
		return
	}
	stageID, err := s.tournaments.CreateSwissRound(r.Context(), service.SwissParams{
		TournamentID: id,
		Name:         req.Name,
		MinScore:     req.MinScore,
		UseSeeding:   req.UseSeeding,
		BoType:       req.BoType,
	})
	if err != nil {
		httputil.Error(w, "Failed to create swiss round", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": stageID})
}

func (s *server) seedBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Teams []uuid.UUID `json:"teams"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid seeding", err)
		return
	}
	if err := s.tournaments.SeedBracket(r.Context(), id, req.Teams); err != nil {
		httputil.Error(w, "Failed to seed bracket", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) regenerateStage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req := struct {
		BoType tournament.BoType `json:"bo_type"`
	}{BoType: tournament.BO1}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid regeneration", err)
		return
	}
	if err := s.tournaments.RegenerateStage(r.Context(), id, req.BoType); err != nil {
		httputil.Error(w, "Failed to regenerate stage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) deleteStage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.tournaments.DeleteStage(r.Context(), id); err != nil {
		httputil.Error(w, "Failed to delete stage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) generateSwissRound(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	round, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil {
		httputil.BadRequest(w, "Invalid round", err)
		return
	}
	matches, err := s.tournaments.GenerateSwissRound(r.Context(), id, round)
	if err != nil {
		httputil.Error(w, "Failed to generate swiss round", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

type launchRequest struct {
	Round    int                   `json:"round"`
	Set      tournament.BracketSet `json:"set"`
	MatchIDs []uuid.UUID           `json:"match_ids"`
}

func (s *server) launchMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req launchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, "Invalid launch", err)
		return
	}
	launched, err := s.matches.LaunchMatches(r.Context(), id, service.LaunchSelection{
		Round:    req.Round,
		Set:      req.Set,
		MatchIDs: req.MatchIDs,
	})
	if err != nil {
		httputil.Error(w, "Failed to launch matches", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, launched)
}
