// Package httpapi exposes the service over REST: account and session
// endpoints under /api/auth and the cleaning endpoints under /api/services.
// Handlers stay thin; business rules live in the services package.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/cleanengine"
	"github.com/dmitrijs2005/datacleaner/internal/logging"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/dmitrijs2005/datacleaner/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const (
	// login attempts allowed per IP per minute
	loginRateLimit = 5
	loginBurst     = 5

	maxUploadBytes    = 50 << 20
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// authSvc is the slice of the auth service the handlers use.
type authSvc interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	EnrollMFA(ctx context.Context, userID string) (*services.MFAEnrollment, error)
	VerifyMFAEnrollment(ctx context.Context, userID string, code string) error
	VerifyMFAEnrollmentByEmail(ctx context.Context, email string, code string) error
	Login(ctx context.Context, email, password, mfaCode string) (string, *models.User, error)
	CompleteRegistration(ctx context.Context, email, password, mfaCode string) (string, *models.User, error)
	VerifySession(ctx context.Context, token string) (string, error)
	RevokeSession(ctx context.Context, token string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// cleaningSvc is the slice of the cleaning service the handlers use.
type cleaningSvc interface {
	Clean(ctx context.Context, userID string, upload *services.CleanUpload, opts cleanengine.Options) (*services.CleanResult, error)
	History(ctx context.Context, userID string, limit int64) ([]*models.ProcessingRecord, error)
	RecordArtifacts(ctx context.Context, userID string, recordID string) ([]*models.ExportArtifact, error)
	OpenArtifact(ctx context.Context, userID string, artifactID string) (*services.ArtifactContent, error)
}

type Server struct {
	address     string
	logger      logging.Logger
	auth        authSvc
	cleaning    cleaningSvc
	corsOrigins []string

	loginLimiterMu sync.Mutex
	loginLimiters  map[string]*rate.Limiter
}

func NewServer(address string, logger logging.Logger, auth authSvc, cleaning cleaningSvc, corsOrigins []string) *Server {
	return &Server{
		address:       address,
		logger:        logger.With("module", "http_server"),
		auth:          auth,
		cleaning:      cleaning,
		corsOrigins:   corsOrigins,
		loginLimiters: make(map[string]*rate.Limiter),
	}
}

// Handler assembles the router with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-mfa", s.handleVerifyMFA).Methods(http.MethodPost)
	api.HandleFunc("/auth/complete-registration", s.withLoginRateLimit(s.handleCompleteRegistration)).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.withLoginRateLimit(s.handleLogin)).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.withAuth(s.handleVerify)).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/mfa/enroll", s.withAuth(s.handleMFAEnroll)).Methods(http.MethodPost)
	api.HandleFunc("/auth/mfa/confirm", s.withAuth(s.handleMFAConfirm)).Methods(http.MethodPost)

	api.HandleFunc("/services/data-clean", s.withAuth(s.handleDataClean)).Methods(http.MethodPost)
	api.HandleFunc("/services/history", s.withAuth(s.handleHistory)).Methods(http.MethodGet)
	api.HandleFunc("/services/history/{recordID}/artifacts", s.withAuth(s.handleRecordArtifacts)).Methods(http.MethodGet)
	api.HandleFunc("/services/exports/{artifactID}", s.withAuth(s.handleExport)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.withRequestLog(r))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "error during shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "data-cleaner"})
}
