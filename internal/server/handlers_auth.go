package server

import (
	"fmt"
	"net/http"
	"time"

	"filedrop/internal/api"
	"filedrop/internal/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	cfg := s.cfg.Auth
	if cfg.AdminPasswordHash == "" || cfg.JWTSecret == "" {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("admin access is not configured")))
		return
	}
	if !auth.VerifyAdminPassword(cfg.AdminPasswordHash, req.Password) {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("invalid password")))
		return
	}

	ttl := auth.DefaultTokenTTL
	if cfg.TokenTTLHours > 0 {
		ttl = time.Duration(cfg.TokenTTLHours) * time.Hour
	}
	now := s.service.now()
	token, err := auth.IssueAdminToken(cfg.JWTSecret, ttl, now)
	if err != nil {
		s.writeServiceError(w, r, internalError(err))
		return
	}

	s.log().Info("admin login", "remote_addr", r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, api.LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(ttl).UTC(),
	})
}
