package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"filedrop/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "filedrop.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleTransfer(id string) *models.Transfer {
	return &models.Transfer{
		ID:                 id,
		Uploader:           "studio",
		AccessCodeHash:     "$2a$10$fakehash",
		TotalSize:          30720,
		MaxDownloads:       2,
		RemainingDownloads: 2,
		CreatedAt:          time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Files: []models.TransferFile{
			{ID: "f-1", Name: "a.png", Size: 10240, MediaType: "image/png", BlobKey: id + "/0-a.png"},
			{ID: "f-2", Name: "b.png", Size: 20480, MediaType: "image/png", BlobKey: id + "/1-b.png"},
		},
	}
}

func TestCreateGetTransfer(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := sampleTransfer("tr-abc")
	exp := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	in.ExpiresAt = &exp

	if err := st.CreateTransfer(ctx, in); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	got, err := st.GetTransfer(ctx, "tr-abc")
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got == nil {
		t.Fatal("expected transfer, got nil")
	}
	if got.Uploader != "studio" || got.TotalSize != 30720 {
		t.Fatalf("unexpected transfer: %+v", got)
	}
	if got.MaxDownloads != 2 || got.RemainingDownloads != 2 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected expires_at: %v", got.ExpiresAt)
	}
	if len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got.Files))
	}
	if got.Files[0].Name != "a.png" || got.Files[0].Index != 0 {
		t.Fatalf("unexpected first file: %+v", got.Files[0])
	}
	if got.Files[1].BlobKey != "tr-abc/1-b.png" {
		t.Fatalf("unexpected blob key: %q", got.Files[1].BlobKey)
	}

	ok, err := st.TransferExists("tr-abc")
	if err != nil || !ok {
		t.Fatalf("expected transfer to exist: ok=%v err=%v", ok, err)
	}
	ok, err = st.TransferExists("missing")
	if err != nil || ok {
		t.Fatalf("expected missing transfer: ok=%v err=%v", ok, err)
	}
}

func TestGetTransferUnknown(t *testing.T) {
	st := newTestStore(t)
	got, err := st.GetTransfer(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestCreateTransferRequiresFiles(t *testing.T) {
	st := newTestStore(t)
	err := st.CreateTransfer(context.Background(), &models.Transfer{ID: "tr-x", MaxDownloads: 1, RemainingDownloads: 1})
	if err == nil {
		t.Fatal("expected error for transfer without files")
	}
}

func TestConsumeDownload(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateTransfer(ctx, sampleTransfer("tr-count")); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := st.ConsumeDownload(ctx, "tr-count")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("consume %d should succeed", i)
		}
	}

	ok, err := st.ConsumeDownload(ctx, "tr-count")
	if err != nil {
		t.Fatalf("consume exhausted: %v", err)
	}
	if ok {
		t.Fatal("consume on exhausted transfer must fail")
	}

	got, err := st.GetTransfer(ctx, "tr-count")
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.RemainingDownloads != 0 {
		t.Fatalf("remaining must never go negative, got %d", got.RemainingDownloads)
	}
}

func TestConsumeDownloadUnknownID(t *testing.T) {
	st := newTestStore(t)
	ok, err := st.ConsumeDownload(context.Background(), "missing")
	if err != nil {
		t.Fatalf("consume unknown: %v", err)
	}
	if ok {
		t.Fatal("consume on unknown id must report false")
	}
}

func TestConsumeDownloadConcurrent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tr := sampleTransfer("tr-race")
	tr.MaxDownloads = 1
	tr.RemainingDownloads = 1
	if err := st.CreateTransfer(ctx, tr); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.ConsumeDownload(ctx, "tr-race")
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", successes)
	}
}

func TestRefundDownload(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateTransfer(ctx, sampleTransfer("tr-refund")); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if _, err := st.ConsumeDownload(ctx, "tr-refund"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := st.RefundDownload(ctx, "tr-refund"); err != nil {
		t.Fatalf("refund: %v", err)
	}

	got, err := st.GetTransfer(ctx, "tr-refund")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RemainingDownloads != 2 {
		t.Fatalf("expected refund back to 2, got %d", got.RemainingDownloads)
	}

	// Refund at max is a no-op; the counter never exceeds max_downloads.
	if err := st.RefundDownload(ctx, "tr-refund"); err != nil {
		t.Fatalf("refund at max: %v", err)
	}
	got, err = st.GetTransfer(ctx, "tr-refund")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RemainingDownloads != 2 {
		t.Fatalf("refund must cap at max, got %d", got.RemainingDownloads)
	}
}

func TestDeleteTransferCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateTransfer(ctx, sampleTransfer("tr-del")); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	deleted, err := st.DeleteTransfer(ctx, "tr-del")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	got, err := st.GetTransfer(ctx, "tr-del")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("expected transfer to be gone")
	}

	var count int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM transfer_files WHERE transfer_id = 'tr-del'`).Scan(&count); err != nil {
		t.Fatalf("count files: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected file rows to cascade, got %d", count)
	}

	deleted, err = st.DeleteTransfer(ctx, "tr-del")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete must report false")
	}
}

func TestListExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := sampleTransfer("tr-old")
	expired.ExpiresAt = &past
	alive := sampleTransfer("tr-new")
	alive.Files[0].ID = "f-3"
	alive.Files[1].ID = "f-4"
	alive.ExpiresAt = &future
	forever := sampleTransfer("tr-forever")
	forever.Files[0].ID = "f-5"
	forever.Files[1].ID = "f-6"

	for _, tr := range []*models.Transfer{expired, alive, forever} {
		if err := st.CreateTransfer(ctx, tr); err != nil {
			t.Fatalf("create %s: %v", tr.ID, err)
		}
	}

	got, err := st.ListExpired(ctx, now, 10)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(got) != 1 || got[0].ID != "tr-old" {
		t.Fatalf("expected only tr-old, got %+v", got)
	}
	if len(got[0].Files) != 2 {
		t.Fatalf("expected expired transfer to carry files, got %d", len(got[0].Files))
	}
}

func TestListTransfers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := sampleTransfer("tr-1")
	first.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := sampleTransfer("tr-2")
	second.Files[0].ID = "f-3"
	second.Files[1].ID = "f-4"
	second.CreatedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	for _, tr := range []*models.Transfer{first, second} {
		if err := st.CreateTransfer(ctx, tr); err != nil {
			t.Fatalf("create %s: %v", tr.ID, err)
		}
	}

	got, err := st.ListTransfers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(got))
	}
	if got[0].ID != "tr-2" || got[1].ID != "tr-1" {
		t.Fatalf("expected newest first, got %s then %s", got[0].ID, got[1].ID)
	}
}
