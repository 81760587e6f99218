package server

import (
	"net/http"

	"filedrop/internal/api"
)

func (s *Server) handleAdminCleanup(w http.ResponseWriter, r *http.Request) {
	var req api.CleanupRequest
	if r.ContentLength != 0 {
		if !s.decodeJSONReq(w, r, &req) {
			return
		}
	}

	result, err := s.service.SweepExpired(r.Context(), req.DryRun, req.Limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.CleanupResponse{
		CandidateCount: result.CandidateCount,
		DeletedCount:   result.DeletedCount,
		FailedCount:    result.FailedCount,
		ReclaimedBytes: result.ReclaimedBytes,
		DryRun:         req.DryRun,
	})
}
