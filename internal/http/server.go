// Package http exposes the ledger commands and queries as a JSON API. It
// owns no ledger state of its own: every handler resolves the session's
// ledger, applies at most one command, and derives views fresh per request.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cashflow/internal/log"
	"cashflow/internal/session"
)

// SessionHeader carries the session id on requests and responses.
const SessionHeader = "X-Session-ID"

const sessionCookie = "cashflow_session"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sessionIDKey contextKey = "session_id"
)

type appMetrics struct {
	uptime        time.Time
	totalCommands int64
	totalQueries  int64
}

type Server struct {
	http.Server
	sessions    *session.Registry
	rateLimiter *rateLimiter
	currency    string
	logger      *log.Logger

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, sessions *session.Registry, currencySymbol string, ratePerMinute int, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:    sessions,
		rateLimiter: newRateLimiter(ratePerMinute),
		currency:    currencySymbol,
		logger:      logger.WithComponent(log.ComponentHTTP),
		appMetrics:  appMetrics{uptime: time.Now()},
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Commands
	mux.HandleFunc("/balance", s.observed(s.withSession(s.handleBalance)))
	mux.HandleFunc("/expenses", s.observed(s.withSession(s.handleExpenses)))
	mux.HandleFunc("/reset", s.observed(s.withSession(s.handleReset)))

	// Queries
	mux.HandleFunc("/snapshot", s.observed(s.withSession(s.handleSnapshot)))
	mux.HandleFunc("/balance/series", s.observed(s.withSession(s.handleBalanceSeries)))
	mux.HandleFunc("/breakdown", s.observed(s.withSession(s.handleBreakdown)))
	mux.HandleFunc("/summary", s.observed(s.withSession(s.handleSummary)))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// observed adds request ids, security headers, rate limiting, and
// request/response logging around a handler.
func (s *Server) observed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		// Commands are rate limited; reads are cheap enough to leave alone.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			NewJSONResponse().
				Status(http.StatusTooManyRequests).
				Error("rate_limited", "Rate limit exceeded. Please try again later.").
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP,
			log.FieldSuccess, rw.statusCode < 400)
	}
}

// withSession resolves the caller's ledger before the handler runs. Unknown
// or expired session ids silently mint a fresh session; the id always comes
// back in the response header and cookie so the client can stick to it.
func (s *Server) withSession(next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				id = c.Value
			}
		}

		led, ok := s.sessions.Get(id)
		if !ok {
			id, led = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			s.logger.InfoContext(r.Context(), "Session created", log.FieldSessionID, id)
		}

		w.Header().Set(SessionHeader, id)
		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next(w, r.WithContext(ctx), led)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) countCommand() {
	atomic.AddInt64(&s.appMetrics.totalCommands, 1)
}

func (s *Server) countQuery() {
	atomic.AddInt64(&s.appMetrics.totalQueries, 1)
}
