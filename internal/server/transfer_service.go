package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"filedrop/internal/auth"
	"filedrop/internal/blobstore"
	"filedrop/internal/config"
	"filedrop/internal/models"
	"filedrop/internal/store"
)

const blobWriteConcurrency = 4

// TransferService implements transfer lifecycle operations on top of the
// metadata store and the blob store.
type TransferService struct {
	store  store.TransferStore
	blobs  blobstore.BlobStore
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewTransferService creates a transfer service with the wall clock.
func NewTransferService(transferStore store.TransferStore, blobs blobstore.BlobStore, cfg *config.Config, logger *slog.Logger) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferService{
		store:  transferStore,
		blobs:  blobs,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// FileUpload is one incoming file. Open is called at most once.
type FileUpload struct {
	Name      string
	Size      int64
	MediaType string
	Open      func() (io.ReadCloser, error)
}

// CreateTransferRequest carries validated upload parameters.
type CreateTransferRequest struct {
	ExpiryDays   int
	RequireCode  bool
	MaxDownloads int
	Uploader     string
	NotifyEmail  string
	Files        []FileUpload
}

// CreateTransfer persists the uploaded files and the transfer record. The
// returned plaintext access code is empty unless a code was requested; it is
// never stored and cannot be recovered later.
func (s *TransferService) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*models.Transfer, string, error) {
	if len(req.Files) == 0 {
		return nil, "", badRequestCode(fmt.Errorf("at least one file is required"), ErrCodeMissingRequired)
	}
	if req.ExpiryDays < 0 {
		return nil, "", badRequest(fmt.Errorf("expiry_days must not be negative"))
	}

	limits := s.cfg.Transfers
	var totalSize int64
	for _, f := range req.Files {
		if f.Size > limits.MaxFileBytes {
			return nil, "", payloadTooLarge(fmt.Errorf("file %q exceeds the %d byte per-file limit", f.Name, limits.MaxFileBytes))
		}
		totalSize += f.Size
	}
	if totalSize > limits.MaxTotalBytes {
		return nil, "", payloadTooLarge(fmt.Errorf("upload exceeds the %d byte total limit", limits.MaxTotalBytes))
	}

	maxDownloads := req.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = limits.MaxDownloads
	}

	id, err := store.NewTransferID(s.store.TransferExists)
	if err != nil {
		return nil, "", storeFailure(err)
	}

	var accessCode, accessCodeHash string
	if req.RequireCode {
		accessCode, err = store.NewAccessCode(limits.AccessCodeLength)
		if err != nil {
			return nil, "", internalError(err)
		}
		accessCodeHash, err = auth.HashAccessCode(accessCode)
		if err != nil {
			return nil, "", internalError(err)
		}
	}

	createdAt := s.now().UTC()
	var expiresAt *time.Time
	if req.ExpiryDays > 0 {
		at := createdAt.Add(time.Duration(req.ExpiryDays) * 24 * time.Hour)
		expiresAt = &at
	}

	transfer := &models.Transfer{
		ID:                 id,
		Uploader:           req.Uploader,
		AccessCodeHash:     accessCodeHash,
		TotalSize:          totalSize,
		MaxDownloads:       maxDownloads,
		RemainingDownloads: maxDownloads,
		NotifyEmail:        req.NotifyEmail,
		CreatedAt:          createdAt,
		ExpiresAt:          expiresAt,
		Files:              make([]models.TransferFile, len(req.Files)),
	}
	for i, f := range req.Files {
		name := sanitizeFilename(f.Name)
		transfer.Files[i] = models.TransferFile{
			ID:        uuid.NewString(),
			Index:     i,
			Name:      name,
			Size:      f.Size,
			MediaType: f.MediaType,
			BlobKey:   blobKey(id, i, name),
		}
	}

	if err := s.persistBlobs(ctx, transfer, req.Files); err != nil {
		s.rollbackBlobs(ctx, id)
		return nil, "", err
	}

	if err := s.store.CreateTransfer(ctx, transfer); err != nil {
		s.rollbackBlobs(ctx, id)
		return nil, "", storeFailure(err)
	}

	s.logger.Info("transfer created",
		"transfer_id", id,
		"files", len(transfer.Files),
		"total_size", totalSize,
		"max_downloads", maxDownloads,
		"requires_code", req.RequireCode)
	return transfer, accessCode, nil
}

func (s *TransferService) persistBlobs(ctx context.Context, transfer *models.Transfer, files []FileUpload) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobWriteConcurrency)

	for i := range files {
		file := files[i]
		meta := transfer.Files[i]
		g.Go(func() error {
			r, err := file.Open()
			if err != nil {
				return blobFailure(fmt.Errorf("open upload %q: %w", meta.Name, err))
			}
			defer r.Close()

			written, err := s.blobs.Put(gctx, meta.BlobKey, r, meta.Size)
			if err != nil {
				return blobFailure(fmt.Errorf("store %q: %w", meta.Name, err))
			}
			if written != meta.Size {
				return blobFailure(fmt.Errorf("stored %d of %d bytes for %q", written, meta.Size, meta.Name))
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *TransferService) rollbackBlobs(ctx context.Context, transferID string) {
	if _, err := s.blobs.DeletePrefix(ctx, transferID); err != nil {
		s.logger.Error("rollback blobs", "transfer_id", transferID, "error", err)
	}
}

// GetTransfer loads a transfer or returns a not-found error.
func (s *TransferService) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	transfer, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if transfer == nil {
		return nil, notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound)
	}
	return transfer, nil
}

// Authorize checks the candidate access code against the transfer policy.
// Transfers created without a code accept any candidate, including none.
func (s *TransferService) Authorize(transfer *models.Transfer, code string) error {
	if !transfer.RequiresCode() {
		return nil
	}
	if !auth.VerifyAccessCode(transfer.AccessCodeHash, code) {
		return forbidden(fmt.Errorf("invalid access code"))
	}
	return nil
}

// CheckState rejects expired and exhausted transfers. Expiry wins when both
// apply.
func (s *TransferService) CheckState(transfer *models.Transfer) error {
	switch transfer.State(s.now()) {
	case models.StateExpired:
		return expired(fmt.Errorf("transfer %s has expired", transfer.ID))
	case models.StateExhausted:
		return exhausted(fmt.Errorf("transfer %s has no downloads remaining", transfer.ID))
	default:
		return nil
	}
}

// Verify authorizes access to a transfer without consuming a download slot.
// State is checked before the code, so an expired transfer reports expiry
// even to a caller holding the wrong code.
func (s *TransferService) Verify(ctx context.Context, id, code string) (*models.Transfer, error) {
	transfer, err := s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.CheckState(transfer); err != nil {
		return nil, err
	}
	if err := s.Authorize(transfer, code); err != nil {
		return nil, err
	}
	return transfer, nil
}

// OpenFile authorizes, opens the blob, and only then consumes a download
// slot, so a missing blob never burns budget. The caller owns the reader.
func (s *TransferService) OpenFile(ctx context.Context, id, fileID, code string) (*models.TransferFile, io.ReadCloser, error) {
	transfer, err := s.GetTransfer(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.CheckState(transfer); err != nil {
		return nil, nil, err
	}
	if err := s.Authorize(transfer, code); err != nil {
		return nil, nil, err
	}

	file := transfer.FileByID(fileID)
	if file == nil {
		return nil, nil, notFoundCode(fmt.Errorf("file %s not found in transfer %s", fileID, id), ErrCodeFileNotFound)
	}

	r, err := s.blobs.Open(ctx, file.BlobKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, notFoundCode(fmt.Errorf("file %s content is missing", fileID), ErrCodeFileNotFound)
		}
		return nil, nil, blobFailure(err)
	}

	if err := s.ConsumeDownload(ctx, id); err != nil {
		r.Close()
		return nil, nil, err
	}
	return file, r, nil
}

// ConsumeDownload takes one download slot or fails with an exhausted error.
func (s *TransferService) ConsumeDownload(ctx context.Context, id string) error {
	consumed, err := s.store.ConsumeDownload(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !consumed {
		return exhausted(fmt.Errorf("transfer %s has no downloads remaining", id))
	}
	return nil
}

// RefundDownload returns a slot consumed by a request that never delivered
// any bytes.
func (s *TransferService) RefundDownload(ctx context.Context, id string) {
	if err := s.store.RefundDownload(ctx, id); err != nil {
		s.logger.Error("refund download", "transfer_id", id, "error", err)
	}
}

// Delete removes a transfer's metadata and blobs.
func (s *TransferService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteTransfer(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return notFoundCode(fmt.Errorf("transfer %s not found", id), ErrCodeTransferNotFound)
	}
	if _, err := s.blobs.DeletePrefix(ctx, id); err != nil {
		// Metadata is gone, so the transfer is unreachable either way.
		s.logger.Error("delete blobs", "transfer_id", id, "error", err)
	}
	s.logger.Info("transfer deleted", "transfer_id", id)
	return nil
}

// List returns all transfers, newest first.
func (s *TransferService) List(ctx context.Context) ([]models.Transfer, error) {
	transfers, err := s.store.ListTransfers(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return transfers, nil
}

// SweepResult summarizes one expired-transfer sweep.
type SweepResult struct {
	CandidateCount int
	DeletedCount   int
	FailedCount    int
	ReclaimedBytes int64
}

// SweepExpired deletes transfers whose expiry instant has passed. With
// dryRun it only reports what would be removed.
func (s *TransferService) SweepExpired(ctx context.Context, dryRun bool, limit int) (SweepResult, error) {
	if limit <= 0 {
		limit = s.cfg.Transfers.CleanupBatchSize
	}

	expired, err := s.store.ListExpired(ctx, s.now(), limit)
	if err != nil {
		return SweepResult{}, storeFailure(err)
	}

	result := SweepResult{CandidateCount: len(expired)}
	for _, transfer := range expired {
		if dryRun {
			result.ReclaimedBytes += transfer.TotalSize
			continue
		}
		if _, err := s.store.DeleteTransfer(ctx, transfer.ID); err != nil {
			s.logger.Error("sweep transfer", "transfer_id", transfer.ID, "error", err)
			result.FailedCount++
			continue
		}
		if _, err := s.blobs.DeletePrefix(ctx, transfer.ID); err != nil {
			s.logger.Error("sweep blobs", "transfer_id", transfer.ID, "error", err)
		}
		result.DeletedCount++
		result.ReclaimedBytes += transfer.TotalSize
	}

	if !dryRun && result.CandidateCount > 0 {
		s.logger.Info("expired transfers swept",
			"candidates", result.CandidateCount,
			"deleted", result.DeletedCount,
			"failed", result.FailedCount,
			"reclaimed_bytes", result.ReclaimedBytes)
	}
	return result, nil
}

func blobKey(transferID string, index int, name string) string {
	return fmt.Sprintf("%s/%d-%s", transferID, index, name)
}
