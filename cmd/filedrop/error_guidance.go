package main

import (
	"context"
	"errors"
	"net"

	"filedrop/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: run 'filedrop login' and export FILEDROP_API_TOKEN.")
		case "forbidden":
			lines = append(lines, "hint: check the access code; codes are case-insensitive.")
		case "expired":
			lines = append(lines, "hint: this transfer has expired and its files are scheduled for removal.")
		case "exhausted":
			lines = append(lines, "hint: the download limit for this transfer has been reached.")
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly; the server limits concurrent uploads and archive downloads.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify FILEDROP_API_URL points to a filedrop server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase FILEDROP_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a filedrop server is running at FILEDROP_API_URL.",
			"hint: start a local server manually with: filedrop srv",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
