package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Admin auth.
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	// Transfer management (admin).
	mux.HandleFunc("POST /v1/transfers", s.requireAdmin(s.handleCreateTransfer))
	mux.HandleFunc("GET /v1/transfers", s.requireAdmin(s.handleListTransfers))
	mux.HandleFunc("DELETE /v1/transfers/{id}", s.requireAdmin(s.handleDeleteTransfer))
	mux.HandleFunc("POST /v1/admin/cleanup", s.requireAdmin(s.handleAdminCleanup))

	// Recipient access (code-gated).
	mux.HandleFunc("POST /v1/transfers/{id}/verify", s.handleVerify)
	mux.HandleFunc("GET /v1/transfers/{id}/files/{file_id}", s.handleDownloadFile)
	mux.HandleFunc("GET /v1/transfers/{id}/archive", s.handleDownloadArchive)

	return mux
}
