// Package server provides the HTTP REST API of the grant portal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/grants"
	"github.com/jonathan/grant-portal/internal/profile"
	"github.com/jonathan/grant-portal/internal/server/middleware"
	"github.com/jonathan/grant-portal/internal/server/ratelimit"
	"github.com/jonathan/grant-portal/internal/storage"
)

type ctxKey int

const requestIDKey ctxKey = iota

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Users   *UserService
	JWT     *JWTService
	Profile *profile.Service
	Grants  *grants.Service
	Files   storage.Storage // profile pictures
	Limiter *ratelimit.Limiter
	Health  Pinger
	Logger  *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	users       *UserService
	jwt         *JWTService
	profile     *profile.Service
	grants      *grants.Service
	files       storage.Storage
	rateLimiter *ratelimit.Limiter
	health      Pinger
	logger      *slog.Logger
	authHandler *AuthHandler

	handler http.Handler
}

// New wires the routes. A nil Limiter disables rate limiting.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		users:       deps.Users,
		jwt:         deps.JWT,
		profile:     deps.Profile,
		grants:      deps.Grants,
		files:       deps.Files,
		rateLimiter: deps.Limiter,
		health:      deps.Health,
		logger:      logger,
	}
	s.authHandler = NewAuthHandler(s.users, s.jwt, s.respondError)

	authn := middleware.AuthMiddleware(s.jwt, s.users.Role)
	user := func(h http.HandlerFunc) http.Handler { return authn(h) }
	staff := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireRole(string(db.RoleAdmin), string(db.RoleReviewer))(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireRole(string(db.RoleAdmin))(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Accounts
	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
	mux.Handle("GET /api/auth/me", user(s.authHandler.Me))
	mux.Handle("PUT /api/auth/password", user(s.authHandler.UpdatePassword))

	// Researcher profile
	mux.Handle("GET /api/research/personal", user(s.handleGetPersonal))
	mux.Handle("POST /api/research/personal", user(s.handleUpsertPersonal))
	mux.Handle("POST /api/research/personal/profile-picture", user(s.handleUploadPicture))
	mux.Handle("GET /api/research/educational", user(s.handleListEducation))
	mux.Handle("POST /api/research/educational", user(s.handleCreateEducation))
	mux.Handle("PUT /api/research/educational/{id}", user(s.handleUpdateEducation))
	mux.Handle("DELETE /api/research/educational/{id}", user(s.handleDeleteEducation))
	mux.Handle("GET /api/research/employment", user(s.handleListEmployment))
	mux.Handle("POST /api/research/employment", user(s.handleCreateEmployment))
	mux.Handle("PUT /api/research/employment/{id}", user(s.handleUpdateEmployment))
	mux.Handle("DELETE /api/research/employment/{id}", user(s.handleDeleteEmployment))

	// Applications
	mux.Handle("GET /api/applications", user(s.handleListMyApplications))
	mux.Handle("POST /api/applications", user(s.handleCreateApplication))
	mux.Handle("GET /api/applications/{id}", user(s.handleGetApplication))
	mux.Handle("PUT /api/applications/{id}", user(s.handleUpdateApplication))
	mux.Handle("DELETE /api/applications/{id}", user(s.handleDeleteApplication))
	mux.Handle("POST /api/applications/{id}/submit", user(s.handleSubmitApplication))
	mux.Handle("POST /api/applications/{id}/attachments", user(s.handleUploadAttachments))
	mux.Handle("POST /api/applications/{id}/progress", user(s.handleAddProgressReport))

	// Review
	mux.Handle("GET /api/admin/applications", staff(s.handleListAllApplications))
	mux.Handle("GET /api/admin/applications/status/{status}", staff(s.handleListApplicationsByStatus))
	mux.Handle("PUT /api/admin/applications/{id}/review", staff(s.handleReviewApplication))
	mux.Handle("POST /api/admin/applications/{id}/complete", admin(s.handleCompleteApplication))
	mux.Handle("GET /api/admin/stats", admin(s.handleStats))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: "Route not found"})
	})

	s.handler = s.withRequestID(s.withLogging(s.withRecover(s.withRateLimit(s.withCORS(mux)))))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Error: "Database unavailable"})
			return
		}
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// principal returns the authenticated caller. Routes that call it are
// wrapped in AuthMiddleware.
func principal(r *http.Request) middleware.Principal {
	p, _ := middleware.GetPrincipal(r.Context())
	return p
}

// pathID parses the {id} path value; malformed IDs read as not found.
func pathID(r *http.Request, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, notFound(resource)
	}
	return id, nil
}

func withRequestIDContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID tags each request with an id, reusing X-Request-ID when the
// client sends one.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestIDContext(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "request",
			slog.String("request_id", requestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.respondError(w, r, fmt.Errorf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(info.RetryAfter.Seconds()))))
			}
			s.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("request_id", requestID(r.Context())),
				slog.String("client", clientID(r)),
				slog.String("path", r.URL.Path))
			writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Error: "Too many requests, please try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by remote IP. X-Forwarded-For is ignored
// because it is client-controlled without a trusted proxy.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
