// Package httpapi exposes the training workflow over a JSON REST API.
//
// Routes:
//
//	GET    /api/scenarios                          list scenarios
//	GET    /api/scenarios/{id}                     one scenario
//	POST   /api/conversations                      start a conversation
//	POST   /api/conversations/{id}/messages        post a trainee message
//	GET    /api/conversations/{id}/analysis        score the conversation
//	DELETE /api/conversations/{id}                 close a conversation
//	GET    /api/users/{id}/progress                all progress records
//	GET    /api/users/{id}/progress/{scenario}     one progress record
//
// Errors are JSON objects with a single "error" field. Unknown sessions and
// scenarios map to 404, invalid payloads to 400, progress store outages
// to 503.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/progress"
	"github.com/trainloop/repsim/internal/trainer"
)

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 64 << 10

// Server holds the API handlers.
type Server struct {
	svc *trainer.Service
	log *slog.Logger
}

// NewServer creates a Server around the training service.
func NewServer(svc *trainer.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/scenarios", s.listScenarios)
	mux.HandleFunc("GET /api/scenarios/{id}", s.getScenario)
	mux.HandleFunc("POST /api/conversations", s.startConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.postMessage)
	mux.HandleFunc("GET /api/conversations/{id}/analysis", s.getAnalysis)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.endConversation)
	mux.HandleFunc("GET /api/users/{id}/progress", s.listProgress)
	mux.HandleFunc("GET /api/users/{id}/progress/{scenario}", s.getProgress)
}

// --- DTOs ---

type scenarioDTO struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CustomerType  string `json:"customer_type"`
	TrainingFocus string `json:"training_focus,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
}

func toScenarioDTO(sc persona.Scenario) scenarioDTO {
	return scenarioDTO{
		ID:            sc.ID,
		Title:         sc.Title,
		Description:   sc.Description,
		CustomerType:  sc.CustomerType,
		TrainingFocus: sc.TrainingFocus,
		Difficulty:    sc.Difficulty,
	}
}

type startRequest struct {
	UserID     string `json:"user_id"`
	ScenarioID string `json:"scenario_id"`
}

type conversationDTO struct {
	SessionID     string `json:"session_id"`
	ScenarioID    string `json:"scenario_id"`
	ScenarioTitle string `json:"scenario_title"`
	PersonaName   string `json:"persona_name"`
	CustomerType  string `json:"customer_type"`
	Opening       string `json:"opening"`
	State         string `json:"state"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type replyDTO struct {
	Text   string `json:"text"`
	State  string `json:"state"`
	Tag    string `json:"tag,omitempty"`
	Source string `json:"source"`
}

type analysisDTO struct {
	SessionID   string         `json:"session_id"`
	State       string         `json:"state"`
	TurnCount   int            `json:"turn_count"`
	Overall     int            `json:"overall_score"`
	Categories  map[string]int `json:"category_scores"`
	Suggestions []string       `json:"improvement_suggestions"`
	Highlight   string         `json:"highlight,omitempty"`
	Source      string         `json:"score_source"`
}

type attemptDTO struct {
	SessionID  string         `json:"session_id"`
	ScenarioID string         `json:"scenario_id"`
	Overall    int            `json:"overall_score"`
	Categories map[string]int `json:"category_scores,omitempty"`
	At         time.Time      `json:"at"`
}

type progressDTO struct {
	ScenarioID   string       `json:"scenario_id"`
	BestScore    int          `json:"best_score"`
	AttemptCount int          `json:"attempt_count"`
	Attempts     []attemptDTO `json:"recent_attempts"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func toProgressDTO(rec progress.Record) progressDTO {
	out := progressDTO{
		ScenarioID:   rec.ScenarioID,
		BestScore:    rec.BestScore,
		AttemptCount: rec.AttemptCount,
		Attempts:     make([]attemptDTO, 0, len(rec.Attempts)),
		UpdatedAt:    rec.UpdatedAt,
	}
	for _, a := range rec.Attempts {
		out.Attempts = append(out.Attempts, attemptDTO{
			SessionID:  a.SessionID,
			ScenarioID: a.ScenarioID,
			Overall:    a.Overall,
			Categories: a.Categories,
			At:         a.At,
		})
	}
	return out
}

// --- Handlers ---

func (s *Server) listScenarios(w http.ResponseWriter, _ *http.Request) {
	scenarios := s.svc.ListScenarios()
	out := make([]scenarioDTO, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, toScenarioDTO(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.svc.GetScenario(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(sc))
}

func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "user_id and scenario_id are required")
		return
	}

	conv, err := s.svc.StartConversation(r.Context(), req.UserID, req.ScenarioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversationDTO{
		SessionID:     conv.SessionID,
		ScenarioID:    conv.ScenarioID,
		ScenarioTitle: conv.ScenarioTitle,
		PersonaName:   conv.PersonaName,
		CustomerType:  conv.CustomerType,
		Opening:       conv.Opening,
		State:         string(conv.State),
	})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req) {
		return
	}

	reply, err := s.svc.PostMessage(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replyDTO{
		Text:   reply.Text,
		State:  string(reply.State),
		Tag:    string(reply.Tag),
		Source: string(reply.Source),
	})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisDTO{
		SessionID:   a.SessionID,
		State:       string(a.State),
		TurnCount:   a.TurnCount,
		Overall:     a.Score.Overall,
		Categories:  a.Score.Categories,
		Suggestions: a.Score.Suggestions,
		Highlight:   a.Score.Highlight,
		Source:      string(a.Score.Source),
	})
}

func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.EndConversation(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProgress(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Progress(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]progressDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toProgressDTO(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.ScenarioProgress(r.Context(), r.PathValue("id"), r.PathValue("scenario"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no progress recorded for this scenario")
		return
	}
	writeJSON(w, http.StatusOK, toProgressDTO(*rec))
}

// --- Helpers ---

// decode reads a JSON body into v, rejecting unknown fields. Reports whether
// decoding succeeded; on failure the 400 response is already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trainer.ErrScenarioNotFound),
		errors.Is(err, convstore.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, trainer.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, progress.ErrUnavailable):
		s.log.ErrorContext(r.Context(), "progress store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "progress store unavailable")
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeJSON encodes v as JSON with the given status. On encoding failure it
// falls back to a plain 500 body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}
