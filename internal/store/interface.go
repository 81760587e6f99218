package store

import (
	"context"
	"time"

	"filedrop/internal/models"
)

// TransferStore is the metadata persistence contract used by the transfer
// service. Implementations must make ConsumeDownload atomic per transfer id:
// concurrent calls at remaining_downloads == 1 yield exactly one success.
type TransferStore interface {
	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
	TransferExists(id string) (bool, error)
	// ConsumeDownload decrements remaining_downloads if it is positive and
	// reports whether a download slot was consumed.
	ConsumeDownload(ctx context.Context, id string) (bool, error)
	// RefundDownload returns one consumed slot, never exceeding max_downloads.
	RefundDownload(ctx context.Context, id string) error
	DeleteTransfer(ctx context.Context, id string) (bool, error)
	ListTransfers(ctx context.Context) ([]models.Transfer, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Transfer, error)
}
