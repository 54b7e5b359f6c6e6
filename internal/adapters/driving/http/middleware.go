package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs each request with method, path, status and duration
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// authorizeRefresh validates the bearer token on forced refresh
// requests. Tokens are HS256 JWTs signed with the configured secret.
func (s *Server) authorizeRefresh(r *http.Request) error {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return fmt.Errorf("missing authorization header: %w", domain.ErrUnauthorized)
	}

	tokenString, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return fmt.Errorf("malformed authorization header: %w", domain.ErrUnauthorized)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if !token.Valid {
		return fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	return nil
}
