package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/datacleaner/internal/netx"
	"golang.org/x/time/rate"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// userID returns the authenticated user's ID placed in the context by withAuth.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withAuth verifies the Bearer token and stores the user ID in the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		uid, err := s.auth.VerifySession(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next(w, r.WithContext(ctx))
	}
}

// withLoginRateLimit throttles credential-guessing per client IP.
func (s *Server) withLoginRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := netx.ClientIP(r)
		if !s.getLoginLimiter(ip).Allow() {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
		next(w, r)
	}
}

func (s *Server) getLoginLimiter(ip string) *rate.Limiter {
	s.loginLimiterMu.Lock()
	defer s.loginLimiterMu.Unlock()

	limiter, ok := s.loginLimiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(loginRateLimit)/60, loginBurst)
		s.loginLimiters[ip] = limiter
	}
	return limiter
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "status", rw.status)
	})
}
