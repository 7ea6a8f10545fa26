// Package http exposes the JSON API: auth, trips, distance lookup,
// monthly summaries and report generation.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"kilometri/internal/auth"
	"kilometri/internal/log"
	"kilometri/internal/middleware/ratelimit"
	"kilometri/internal/middleware/security"
	"kilometri/internal/services"
)

// Server wraps http.Server with the application's handlers and middleware.
type Server struct {
	http.Server

	trips    *services.TripService
	reports  *services.ReportService
	accounts *services.AuthService

	tokens     *auth.Manager
	limiter    *ratelimit.Limiter
	clientIP   *security.Resolver
	logger     *log.Logger
	structured *log.StructuredLogger

	shutdownOnce sync.Once
}

// Options carries the tunables NewServer does not take as services.
type Options struct {
	Addr                  string
	DistanceRatePerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, trips *services.TripService, reports *services.ReportService, accounts *services.AuthService, tokens *auth.Manager, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		trips:    trips,
		reports:  reports,
		accounts: accounts,
		tokens:   tokens,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.DistanceRatePerMinute,
		}),
		clientIP:   security.NewResolver(),
		logger:     logger.WithComponent(log.ComponentHTTP),
		structured: log.NewStructuredLogger(logger),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/me", s.authed(s.handleProfile))
	mux.Handle("PUT /api/auth/profile", s.authed(s.handleUpdateProfile))

	mux.Handle("GET /api/trips", s.authed(s.handleListTrips))
	mux.Handle("POST /api/trips", s.authed(s.handleCreateTrip))
	mux.Handle("GET /api/trips/monthly-summary", s.authed(s.handleMonthlySummary))
	mux.Handle("POST /api/trips/calculate-distance", s.authed(s.distanceLimited(s.handleCalculateDistance)))
	mux.Handle("GET /api/trips/{id}", s.authed(s.handleGetTrip))
	mux.Handle("PUT /api/trips/{id}", s.authed(s.handleUpdateTrip))
	mux.Handle("DELETE /api/trips/{id}", s.authed(s.handleDeleteTrip))

	mux.Handle("GET /api/reports", s.authed(s.handleListReports))
	mux.Handle("POST /api/reports/generate", s.authed(s.handleGenerateReport))
	mux.Handle("GET /api/reports/{id}", s.authed(s.handleGetReport))

	handler := security.Headers(security.DefaultHeadersConfig())(
		log.Middleware(s.logger)(s.withRequestLog(mux)))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withRequestLog tags every request with an ID and logs start and completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := s.clientIP.ClientIP(r)

		ctx := context.WithValue(r.Context(), requestIDKey, generateRequestID())
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// authed rejects requests without a valid Bearer token and stores the
// authenticated user ID in the request context.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := s.tokens.VerifyToken(token)
		if err != nil {
			s.writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// distanceLimited throttles distance lookups per authenticated user.
// Must sit inside authed so the user ID is available.
func (s *Server) distanceLimited(next http.HandlerFunc) http.HandlerFunc {
	limited := s.limiter.Middleware(
		func(r *http.Request) string {
			userID, _ := auth.UserID(r.Context())
			return fmt.Sprintf("user:%d", userID)
		},
		func(w http.ResponseWriter, r *http.Request) {
			userID, _ := auth.UserID(r.Context())
			s.logger.WarnContext(r.Context(), "distance lookup rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldUserID, userID)
			w.Header().Set("Retry-After", "60")
			s.writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		},
	)(next)
	return limited.ServeHTTP
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
