package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"filedrop/internal/models"
)

const transferColumns = "id, uploader, access_code_hash, total_size, max_downloads, remaining_downloads, notify_email, created_at, expires_at"
const transferFileColumns = "id, transfer_id, idx, name, size, media_type, blob_key"

// CreateTransfer inserts one transfer row and all of its file rows in a
// single transaction.
func (s *Store) CreateTransfer(ctx context.Context, transfer *models.Transfer) (err error) {
	if transfer == nil {
		return fmt.Errorf("transfer is required")
	}
	if transfer.ID == "" {
		return fmt.Errorf("transfer id is required")
	}
	if len(transfer.Files) == 0 {
		return fmt.Errorf("transfer requires at least one file")
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO transfers (`+transferColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transfer.ID,
		transfer.Uploader,
		transfer.AccessCodeHash,
		transfer.TotalSize,
		transfer.MaxDownloads,
		transfer.RemainingDownloads,
		transfer.NotifyEmail,
		formatTime(transfer.CreatedAt),
		formatTimePtr(transfer.ExpiresAt),
	)
	if err != nil {
		return err
	}

	for i := range transfer.Files {
		f := &transfer.Files[i]
		f.TransferID = transfer.ID
		f.Index = i
		_, err = tx.ExecContext(ctx, `INSERT INTO transfer_files (`+transferFileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.TransferID, f.Index, f.Name, f.Size, f.MediaType, f.BlobKey)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTransfer returns one transfer with its ordered file list, or nil when
// the id is unknown.
func (s *Store) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id)
	transfer, err := scanTransfer(row)
	if err != nil || transfer == nil {
		return transfer, err
	}

	files, err := s.listTransferFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	transfer.Files = files
	return transfer, nil
}

// TransferExists checks whether a transfer exists by id.
func (s *Store) TransferExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM transfers WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ConsumeDownload atomically decrements remaining_downloads when positive.
// The conditional UPDATE serializes concurrent callers: at remaining == 1,
// exactly one caller observes an affected row.
func (s *Store) ConsumeDownload(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transfers SET remaining_downloads = remaining_downloads - 1 WHERE id = ? AND remaining_downloads > 0`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RefundDownload restores one download slot, capped at max_downloads.
func (s *Store) RefundDownload(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transfers SET remaining_downloads = remaining_downloads + 1 WHERE id = ? AND remaining_downloads < max_downloads`, id)
	return err
}

// DeleteTransfer removes the transfer row; file rows cascade. Reports whether
// a row was deleted.
func (s *Store) DeleteTransfer(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListTransfers returns all transfers with files, newest first.
func (s *Store) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transferColumns+` FROM transfers ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers, err := collectTransfers(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(ctx, transfers)
}

// ListExpired returns up to limit transfers whose expiry instant has passed.
func (s *Store) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Transfer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE expires_at IS NOT NULL AND expires_at < ? ORDER BY expires_at LIMIT ?`,
		formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers, err := collectTransfers(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(ctx, transfers)
}

func (s *Store) listTransferFiles(ctx context.Context, transferID string) ([]models.TransferFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transferFileColumns+` FROM transfer_files WHERE transfer_id = ? ORDER BY idx`, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.TransferFile{}
	for rows.Next() {
		var f models.TransferFile
		if err := rows.Scan(&f.ID, &f.TransferID, &f.Index, &f.Name, &f.Size, &f.MediaType, &f.BlobKey); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) attachFiles(ctx context.Context, transfers []models.Transfer) ([]models.Transfer, error) {
	for i := range transfers {
		files, err := s.listTransferFiles(ctx, transfers[i].ID)
		if err != nil {
			return nil, err
		}
		transfers[i].Files = files
	}
	return transfers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	var t models.Transfer
	var createdAt string
	var expiresAt sql.NullString

	err := row.Scan(
		&t.ID,
		&t.Uploader,
		&t.AccessCodeHash,
		&t.TotalSize,
		&t.MaxDownloads,
		&t.RemainingDownloads,
		&t.NotifyEmail,
		&createdAt,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", t.ID, err)
	}
	if expiresAt.Valid {
		parsed, err := parseTime(expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse expires_at for %s: %w", t.ID, err)
		}
		t.ExpiresAt = &parsed
	}
	return &t, nil
}

func collectTransfers(rows *sql.Rows) ([]models.Transfer, error) {
	transfers := []models.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
