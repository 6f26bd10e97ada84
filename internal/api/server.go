package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/bookrec/internal/config"
	"github.com/knowledge-engine/bookrec/internal/engine"
	"github.com/knowledge-engine/bookrec/internal/session"
)

type Server struct {
	Engine   *engine.Engine
	Sessions *session.Store
	Config   *config.Config
	Logger   *logrus.Entry
	Router   chi.Router

	validate *validator.Validate
}

func NewServer(eng *engine.Engine, sessions *session.Store, logger *logrus.Entry) *Server {
	s := &Server{
		Engine:   eng,
		Sessions: sessions,
		Config:   eng.Config,
		Logger:   logger.WithField("component", "api"),
		Router:   chi.NewRouter(),
		validate: validator.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Session-ID"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.Config.Server.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.Config.Server.RateLimit, s.Config.Server.RateWindow))
		}

		r.Get("/books/search", s.handleSearch)
		r.Get("/books/genre", s.handleGenre)
		r.Get("/books/random", s.handleRandom)
		r.Get("/books/similar", s.handleSimilar)
		r.Get("/genres", s.handleGenres)
		r.Get("/insights", s.handleInsights)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/random", s.handleToggleRandom)
	})

	r.Handle("/metrics", promhttp.Handler())
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Config.Server.Addr,
		Handler:      s.Router,
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Infof("Starting API Server on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down API Server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ExpireSessions drops idle sessions every interval until ctx is done.
func (s *Server) ExpireSessions(ctx context.Context, interval time.Duration) {
	maxIdle := s.Config.Recommend.SessionIdleTime
	if maxIdle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sessions.Expire(maxIdle); n > 0 {
				s.Logger.WithField("expired", n).Debug("Expired idle sessions")
			}
		}
	}
}
