package server

import (
	"fmt"
	"net/http"
	"strings"

	"filedrop/internal/auth"
)

// requireAdmin gates a handler behind a valid admin bearer token.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorizeAdmin(r); err != nil {
			s.writeErrorReq(w, r, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}

func (s *Server) authorizeAdmin(r *http.Request) error {
	secret := s.cfg.Auth.JWTSecret
	if secret == "" {
		return unauthorized(fmt.Errorf("admin access is not configured"))
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return unauthorized(fmt.Errorf("missing bearer token"))
	}

	if err := auth.VerifyAdminToken(secret, strings.TrimSpace(token)); err != nil {
		return unauthorized(fmt.Errorf("invalid token: %w", err))
	}
	return nil
}
