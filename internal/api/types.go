package api

import "time"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// FileInfo describes one file inside a transfer as exposed over the wire.
// Storage keys never appear here.
type FileInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"media_type"`
}

// CreateTransferResponse is returned once at upload time; the access code is
// never recoverable afterwards.
type CreateTransferResponse struct {
	ID         string     `json:"id"`
	AccessCode string     `json:"access_code,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Files      []FileInfo `json:"files"`
}

// VerifyRequest carries the candidate access code.
type VerifyRequest struct {
	Code string `json:"code"`
}

// VerifyResponse reports transfer contents and remaining budget. Verification
// is read-only and never consumes a download.
type VerifyResponse struct {
	Files              []FileInfo `json:"files"`
	FileCount          int        `json:"file_count"`
	TotalSize          int64      `json:"total_size"`
	RemainingDownloads int        `json:"remaining_downloads"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	Uploader           string     `json:"uploader,omitempty"`
}

// TransferSummary is the admin-facing listing entry.
type TransferSummary struct {
	ID                 string     `json:"id"`
	Uploader           string     `json:"uploader,omitempty"`
	State              string     `json:"state"`
	FileCount          int        `json:"file_count"`
	TotalSize          int64      `json:"total_size"`
	MaxDownloads       int        `json:"max_downloads"`
	RemainingDownloads int        `json:"remaining_downloads"`
	RequiresCode       bool       `json:"requires_code"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CleanupRequest controls the expired-transfer sweep.
type CleanupRequest struct {
	DryRun bool `json:"dry_run,omitempty"`
	Limit  int  `json:"limit,omitempty"`
}

// CleanupResponse reports one sweep result.
type CleanupResponse struct {
	CandidateCount int   `json:"candidate_count"`
	DeletedCount   int   `json:"deleted_count"`
	FailedCount    int   `json:"failed_count"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
	DryRun         bool  `json:"dry_run"`
}

// InfoResponse describes the server and its configured limits.
type InfoResponse struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	MaxFileBytes  int64  `json:"max_file_bytes"`
	MaxTotalBytes int64  `json:"max_total_bytes"`
	MaxDownloads  int    `json:"max_downloads"`
}
