package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"filedrop/internal/api"
	"filedrop/internal/models"
)

// multipartOverheadBytes pads the request size cap to leave room for form
// boundaries and non-file fields.
const multipartOverheadBytes = 1 << 20

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.uploadLimiter, w, r, "upload") {
		return
	}
	defer s.releaseLimiter(s.uploadLimiter)

	limits := s.cfg.Transfers
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxTotalBytes+multipartOverheadBytes)

	if err := r.ParseMultipartForm(limits.MultipartMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeServiceError(w, r, payloadTooLarge(fmt.Errorf("upload exceeds the %d byte total limit", limits.MaxTotalBytes)))
			return
		}
		s.writeServiceError(w, r, badRequestCode(fmt.Errorf("invalid multipart form: %w", err), ErrCodeInvalidForm))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	req, err := createRequestFromForm(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	transfer, accessCode, err := s.service.CreateTransfer(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, api.CreateTransferResponse{
		ID:         transfer.ID,
		AccessCode: accessCode,
		ExpiresAt:  transfer.ExpiresAt,
		Files:      fileInfos(transfer.Files),
	})
}

func createRequestFromForm(r *http.Request) (CreateTransferRequest, error) {
	var req CreateTransferRequest
	var err error

	if req.ExpiryDays, err = parseFormInt(r, "expiry_days", 0); err != nil {
		return req, err
	}
	if req.RequireCode, err = parseFormBool(r, "require_code", false); err != nil {
		return req, err
	}
	if req.MaxDownloads, err = parseFormInt(r, "max_downloads", 0); err != nil {
		return req, err
	}
	req.Uploader = r.FormValue("uploader")
	req.NotifyEmail = r.FormValue("email")

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		return req, badRequestCode(fmt.Errorf("at least one file is required"), ErrCodeMissingRequired)
	}

	req.Files = make([]FileUpload, len(headers))
	for i, header := range headers {
		header := header
		mediaType := header.Header.Get("Content-Type")
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		req.Files[i] = FileUpload{
			Name:      header.Filename,
			Size:      header.Size,
			MediaType: mediaType,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		}
	}
	return req, nil
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validateTransferID(id) {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound))
		return
	}

	var req api.VerifyRequest
	if r.ContentLength != 0 {
		if !s.decodeJSONReq(w, r, &req) {
			return
		}
	}

	transfer, err := s.service.Verify(r.Context(), id, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.VerifyResponse{
		Files:              fileInfos(transfer.Files),
		FileCount:          len(transfer.Files),
		TotalSize:          transfer.TotalSize,
		RemainingDownloads: transfer.RemainingDownloads,
		ExpiresAt:          transfer.ExpiresAt,
		Uploader:           transfer.Uploader,
	})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fileID := r.PathValue("file_id")
	if !validateTransferID(id) {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound))
		return
	}
	if !validateFileID(fileID) {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("file %s not found", fileID), ErrCodeFileNotFound))
		return
	}

	file, reader, err := s.service.OpenFile(r.Context(), id, fileID, accessCodeFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.MediaType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", contentDisposition(file.Name))

	if _, err := io.Copy(w, reader); err != nil {
		// Headers are out; nothing to send but a truncated body.
		s.log().Warn("file download aborted", "transfer_id", id, "file_id", fileID, "error", err)
	}
}

func (s *Server) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.archiveLimiter, w, r, "archive") {
		return
	}
	defer s.releaseLimiter(s.archiveLimiter)

	id := r.PathValue("id")
	if !validateTransferID(id) {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound))
		return
	}

	transfer, err := s.service.Verify(r.Context(), id, accessCodeFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// One slot per archive request regardless of file count.
	if err := s.service.ConsumeDownload(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	filename := ArchiveFilename(transfer)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("X-Archive-Filename", filename)

	counting := &countingWriter{w: w}
	if err := s.service.WriteArchive(r.Context(), transfer, counting); err != nil {
		if counting.n == 0 {
			// Nothing reached the client; give the slot back and report.
			s.service.RefundDownload(r.Context(), id)
			w.Header().Del("Content-Type")
			w.Header().Del("Content-Disposition")
			w.Header().Del("X-Archive-Filename")
			s.writeServiceError(w, r, err)
			return
		}
		s.log().Warn("archive download aborted", "transfer_id", id, "bytes_sent", counting.n, "error", err)
	}
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	now := s.service.now()
	summaries := make([]api.TransferSummary, len(transfers))
	for i := range transfers {
		t := &transfers[i]
		summaries[i] = api.TransferSummary{
			ID:                 t.ID,
			Uploader:           t.Uploader,
			State:              string(t.State(now)),
			FileCount:          len(t.Files),
			TotalSize:          t.TotalSize,
			MaxDownloads:       t.MaxDownloads,
			RemainingDownloads: t.RemainingDownloads,
			RequiresCode:       t.RequiresCode(),
			CreatedAt:          t.CreatedAt,
			ExpiresAt:          t.ExpiresAt,
		}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validateTransferID(id) {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound))
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fileInfos(files []models.TransferFile) []api.FileInfo {
	infos := make([]api.FileInfo, len(files))
	for i, f := range files {
		infos[i] = api.FileInfo{
			ID:        f.ID,
			Name:      f.Name,
			Size:      f.Size,
			MediaType: f.MediaType,
		}
	}
	return infos
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
