package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/engine"
	"github.com/knowledge-engine/bookrec/internal/recommend"
	"github.com/knowledge-engine/bookrec/internal/session"
)

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type BooksResponse struct {
	Results []catalog.Book `json:"results"`
	Count   int            `json:"count"`
	Notice  string         `json:"notice,omitempty"`
}

type SimilarResponse struct {
	Title   string             `json:"title,omitempty"`
	Text    string             `json:"text,omitempty"`
	Results []recommend.Scored `json:"results"`
	Count   int                `json:"count"`
	Notice  string             `json:"notice,omitempty"`
}

type GenresResponse struct {
	Genres []string `json:"genres"`
	Count  int      `json:"count"`
	Notice string   `json:"notice,omitempty"`
}

type StatusResponse struct {
	engine.Stats
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
	Notice   string `json:"notice,omitempty"`
}

type SessionResponse struct {
	Session session.Session `json:"session"`
	Random  *BooksResponse  `json:"random,omitempty"`
}

// Handlers

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r, s.Config.Recommend.MaxResults)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap := s.Engine.Snapshot(r.Context())
	books, outcome := snap.Recommender.Search(r.URL.Query().Get("q"), limit)
	s.touchSession(r, func(sess *session.Session) { sess.LastQuery = r.URL.Query().Get("q") })

	jsonResponse(w, http.StatusOK, booksResponse(books, snap.Outcome(outcome)))
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	if genre == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'genre' is required"})
		return
	}
	limit, err := s.parseLimit(r, s.Config.Recommend.MaxResults)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap := s.Engine.Snapshot(r.Context())
	books, outcome := snap.Recommender.ByGenre(genre, limit)
	s.touchSession(r, func(sess *session.Session) { sess.SelectedGenre = genre })

	jsonResponse(w, http.StatusOK, booksResponse(books, snap.Outcome(outcome)))
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r, s.Config.Recommend.MaxResults)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap := s.Engine.Snapshot(r.Context())
	books, outcome := snap.Recommender.Random(limit)
	s.touchSession(r, func(sess *session.Session) {
		sess.ShowRandom = true
		sess.RandomLimit = limit
	})

	jsonResponse(w, http.StatusOK, booksResponse(books, snap.Outcome(outcome)))
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	text := r.URL.Query().Get("text")
	if title == "" && text == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'title' or 'text' is required"})
		return
	}
	limit, err := s.parseLimit(r, s.Config.Recommend.SimilarLimit)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap := s.Engine.Snapshot(r.Context())
	var (
		res     []recommend.Scored
		outcome recommend.Outcome
	)
	if title != "" {
		res, outcome = snap.Recommender.Similar(title, limit)
		s.touchSession(r, func(sess *session.Session) { sess.SelectedTitle = title })
	} else {
		res, outcome = snap.Recommender.SimilarToText(text, limit)
	}
	if res == nil {
		res = []recommend.Scored{}
	}

	jsonResponse(w, http.StatusOK, SimilarResponse{
		Title:   title,
		Text:    text,
		Results: res,
		Count:   len(res),
		Notice:  snap.Outcome(outcome).Notice(),
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot(r.Context())
	genres, outcome := snap.Recommender.Genres()
	if genres == nil {
		genres = []string{}
	}

	resp := GenresResponse{Genres: genres, Count: len(genres), Notice: snap.Outcome(outcome).Notice()}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	top := s.Config.Recommend.InsightsTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || s.validate.Var(n, "min=1,max=100") != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'top' must be between 1 and 100"})
			return
		}
		top = n
	}

	snap := s.Engine.Snapshot(r.Context())
	jsonResponse(w, http.StatusOK, catalog.Summarize(snap.Catalog, top))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot(r.Context())
	stats := s.Engine.Stats()

	jsonResponse(w, http.StatusOK, StatusResponse{
		Stats:    stats,
		Sessions: s.Sessions.Len(),
		Uptime:   time.Since(stats.StartTime).Round(time.Second).String(),
		Notice:   snap.Notice(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Engine.Reload(r.Context()); err != nil {
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, s.Engine.Stats())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.Create(s.Config.Recommend.MaxResults)
	jsonResponse(w, http.StatusCreated, SessionResponse{Session: sess})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid session id"})
		return
	}
	sess, err := s.Sessions.Get(id)
	if err != nil {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, s.sessionResponse(r, sess))
}

func (s *Server) handleToggleRandom(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid session id"})
		return
	}
	sess, err := s.Sessions.ToggleRandom(id)
	if err != nil {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, s.sessionResponse(r, sess))
}

// sessionResponse includes a fresh random pick while the sticky flag is on.
func (s *Server) sessionResponse(r *http.Request, sess session.Session) SessionResponse {
	resp := SessionResponse{Session: sess}
	if sess.ShowRandom {
		snap := s.Engine.Snapshot(r.Context())
		books, outcome := snap.Recommender.Random(sess.RandomLimit)
		br := booksResponse(books, snap.Outcome(outcome))
		resp.Random = &br
	}
	return resp
}

// touchSession updates the session named by the X-Session-ID header or the
// session query parameter, if any. Unknown ids are ignored.
func (s *Server) touchSession(r *http.Request, fn func(*session.Session)) {
	raw := r.Header.Get("X-Session-ID")
	if raw == "" {
		raw = r.URL.Query().Get("session")
	}
	if raw == "" {
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return
	}
	if _, err := s.Sessions.Update(id, fn); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.Logger.WithError(err).Warn("Failed to update session")
	}
}

// parseLimit reads the limit query parameter, defaulting to def. Values
// outside 1..MaxResults are rejected.
func (s *Server) parseLimit(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	maxResults := s.Config.Recommend.MaxResults
	n, err := strconv.Atoi(v)
	if err != nil || s.validate.Var(n, fmt.Sprintf("min=1,max=%d", maxResults)) != nil {
		return 0, fmt.Errorf("query 'limit' must be between 1 and %d", maxResults)
	}
	return n, nil
}

func booksResponse(books []catalog.Book, o recommend.Outcome) BooksResponse {
	if books == nil {
		books = []catalog.Book{}
	}
	return BooksResponse{Results: books, Count: len(books), Notice: o.Notice()}
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		response = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
