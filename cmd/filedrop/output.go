package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"filedrop/internal/api"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeCreatedTransfer(resp api.CreateTransferResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", resp.ID),
	}
	if resp.AccessCode != "" {
		lines = append(lines, fmt.Sprintf("access_code: %s (shown once, not recoverable)", resp.AccessCode))
	}
	if resp.ExpiresAt != nil {
		lines = append(lines, fmt.Sprintf("expires_at: %s", formatTime(*resp.ExpiresAt)))
	}
	lines = append(lines, "files:")
	for _, f := range resp.Files {
		lines = append(lines, fmt.Sprintf("  - %s  %s  (%s)", f.ID, f.Name, humanize.Bytes(uint64(f.Size))))
	}

	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeTransferContents(id string, resp api.VerifyResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", id),
		fmt.Sprintf("files: %d", resp.FileCount),
		fmt.Sprintf("total_size: %s", humanize.Bytes(uint64(resp.TotalSize))),
		fmt.Sprintf("remaining_downloads: %d", resp.RemainingDownloads),
	}
	if resp.Uploader != "" {
		lines = append(lines, fmt.Sprintf("uploader: %s", resp.Uploader))
	}
	if resp.ExpiresAt != nil {
		lines = append(lines, fmt.Sprintf("expires_at: %s (%s)", formatTime(*resp.ExpiresAt), humanize.Time(*resp.ExpiresAt)))
	}
	for _, f := range resp.Files {
		lines = append(lines, fmt.Sprintf("  - %s  %s  (%s)", f.ID, f.Name, humanize.Bytes(uint64(f.Size))))
	}

	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeTransferList(transfers []api.TransferSummary) error {
	for _, t := range transfers {
		expiry := "never"
		if t.ExpiresAt != nil {
			expiry = humanize.Time(*t.ExpiresAt)
		}
		line := fmt.Sprintf("%s  %-9s  %d files  %-10s  %d/%d downloads  expires %s",
			t.ID, t.State, t.FileCount, humanize.Bytes(uint64(t.TotalSize)),
			t.RemainingDownloads, t.MaxDownloads, expiry)
		if t.Uploader != "" {
			line += "  by " + t.Uploader
		}
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeServerInfo(resp api.InfoResponse) error {
	lines := []string{
		fmt.Sprintf("name: %s", resp.Name),
		fmt.Sprintf("version: %s", resp.Version),
		fmt.Sprintf("max_file_size: %s", humanize.Bytes(uint64(resp.MaxFileBytes))),
		fmt.Sprintf("max_total_size: %s", humanize.Bytes(uint64(resp.MaxTotalBytes))),
		fmt.Sprintf("default_max_downloads: %d", resp.MaxDownloads),
	}
	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
