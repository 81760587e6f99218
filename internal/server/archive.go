package server

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"

	"filedrop/internal/blobstore"
	"filedrop/internal/models"
)

// ArchiveFilename returns the deterministic download name for a transfer's
// ZIP archive.
func ArchiveFilename(transfer *models.Transfer) string {
	id := transfer.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("filedrop-%s.zip", id)
}

// countingWriter tracks how many bytes reached the underlying writer, so the
// archive handler can tell whether a failed response delivered anything.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteArchive streams every file of the transfer as a ZIP to w, in file
// index order. File contents are read from the blob store one at a time and
// never buffered whole.
func (s *TransferService) WriteArchive(ctx context.Context, transfer *models.Transfer, w io.Writer) error {
	zw := zip.NewWriter(w)

	for i := range transfer.Files {
		file := &transfer.Files[i]
		if err := s.writeArchiveEntry(ctx, zw, transfer, file); err != nil {
			// zw stays unclosed: Close would flush an end-of-central-directory
			// record and turn an entry failure into a valid empty archive.
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return blobFailure(fmt.Errorf("finalize archive: %w", err))
	}
	return nil
}

func (s *TransferService) writeArchiveEntry(ctx context.Context, zw *zip.Writer, transfer *models.Transfer, file *models.TransferFile) error {
	r, err := s.blobs.Open(ctx, file.BlobKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return notFoundCode(fmt.Errorf("file %q content is missing", file.Name), ErrCodeFileNotFound)
		}
		return blobFailure(fmt.Errorf("open %q: %w", file.Name, err))
	}
	defer r.Close()

	header := &zip.FileHeader{
		Name:     file.Name,
		Method:   zip.Deflate,
		Modified: transfer.CreatedAt,
	}
	header.SetMode(0o644)

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return blobFailure(fmt.Errorf("create archive entry %q: %w", file.Name, err))
	}
	if _, err := io.Copy(entry, r); err != nil {
		return blobFailure(fmt.Errorf("write archive entry %q: %w", file.Name, err))
	}
	return nil
}
