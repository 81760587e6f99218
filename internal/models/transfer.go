package models

import "time"

// Transfer is a shareable bundle of uploaded files with an access policy.
// The file list is immutable after creation; the only mutable field is
// RemainingDownloads.
type Transfer struct {
	ID                 string         `json:"id"`
	Uploader           string         `json:"uploader,omitempty"`
	AccessCodeHash     string         `json:"-"`
	TotalSize          int64          `json:"total_size"`
	MaxDownloads       int            `json:"max_downloads"`
	RemainingDownloads int            `json:"remaining_downloads"`
	NotifyEmail        string         `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	Files              []TransferFile `json:"files,omitempty"`
}

// TransferFile is one stored file inside a transfer. BlobKey addresses the
// bytes in the blob store and never leaves the server.
type TransferFile struct {
	ID         string `json:"id"`
	TransferID string `json:"-"`
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MediaType  string `json:"media_type"`
	BlobKey    string `json:"-"`
}

// TransferState describes the lazily-evaluated lifecycle state of a transfer.
type TransferState string

const (
	StateActive    TransferState = "active"
	StateExpired   TransferState = "expired"
	StateExhausted TransferState = "exhausted"
)

// RequiresCode reports whether an access code was configured at creation.
func (t *Transfer) RequiresCode() bool {
	return t != nil && t.AccessCodeHash != ""
}

// Expired reports whether the transfer's expiry instant has passed. A
// transfer without ExpiresAt never expires.
func (t *Transfer) Expired(now time.Time) bool {
	if t == nil || t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// Exhausted reports whether the download budget has been consumed.
func (t *Transfer) Exhausted() bool {
	return t != nil && t.RemainingDownloads <= 0
}

// State evaluates the lifecycle state at the given instant. Expiry wins over
// exhaustion when both apply.
func (t *Transfer) State(now time.Time) TransferState {
	switch {
	case t.Expired(now):
		return StateExpired
	case t.Exhausted():
		return StateExhausted
	default:
		return StateActive
	}
}

// FileByID returns the file with the given id, or nil.
func (t *Transfer) FileByID(fileID string) *TransferFile {
	if t == nil {
		return nil
	}
	for i := range t.Files {
		if t.Files[i].ID == fileID {
			return &t.Files[i]
		}
	}
	return nil
}
