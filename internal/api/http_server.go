package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pawbook/internal/config"
	"pawbook/internal/export"
	"pawbook/internal/metrics"
	"pawbook/internal/models"
	"pawbook/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer is the JSON API the mobile app talks to.
type HTTPServer struct {
	cfg      config.APIConfig
	clinics  *service.ClinicService
	bookings *service.BookingService
	users    *service.UserService
	products *service.ProductService
	exporter *export.Exporter
	auth     *HTTPAuth
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	clinics *service.ClinicService,
	bookings *service.BookingService,
	users *service.UserService,
	products *service.ProductService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		clinics:  clinics,
		bookings: bookings,
		users:    users,
		products: products,
		exporter: exporter,
		auth:     NewHTTPAuth(cfg),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/clinics", srv.handleClinics)
	mux.HandleFunc("/api/v1/clinics/", srv.handleClinic)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBooking)
	mux.HandleFunc("/api/v1/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", srv.handleLogout)
	mux.HandleFunc("/api/v1/profile", srv.handleProfile)
	mux.HandleFunc("/api/v1/profile/favorites/", srv.handleFavorite)
	mux.HandleFunc("/api/v1/profile/pets", srv.handlePetCount)
	mux.HandleFunc("/api/v1/profile/pets/", srv.handlePetImage)
	mux.HandleFunc("/api/v1/products", srv.handleProducts)
	mux.HandleFunc("/api/v1/products/", srv.handleProduct)
	mux.HandleFunc("/api/v1/stats", srv.handleStats)
	mux.HandleFunc("/api/v1/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain, used by httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses record IDs so the metric cardinality stays flat.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return "/" + strings.Join(parts, "/")
}

// session resolves the bearer token, writing 401 when it is missing or stale.
func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	session, err := s.users.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return nil, false
	}
	if session == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return nil, false
	}
	return session, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
