package server

import (
	"net/http"

	"filedrop/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		Name:          "filedrop",
		Version:       s.version,
		MaxFileBytes:  s.cfg.Transfers.MaxFileBytes,
		MaxTotalBytes: s.cfg.Transfers.MaxTotalBytes,
		MaxDownloads:  s.cfg.Transfers.MaxDownloads,
	})
}
