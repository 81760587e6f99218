package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFilenameFromResponse(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-Archive-Filename", "bundle.zip")
	resp.Header.Set("Content-Disposition", `attachment; filename="other.zip"`)
	if got := filenameFromResponse(resp); got != "bundle.zip" {
		t.Fatalf("expected echo header to win, got %q", got)
	}

	resp = &http.Response{Header: http.Header{}}
	resp.Header.Set("Content-Disposition", `attachment; filename="report.pdf"`)
	if got := filenameFromResponse(resp); got != "report.pdf" {
		t.Fatalf("expected disposition filename, got %q", got)
	}

	resp = &http.Response{Header: http.Header{}}
	if got := filenameFromResponse(resp); got != "" {
		t.Fatalf("expected empty filename, got %q", got)
	}
}

func TestHTTPTimeoutFromEnv(t *testing.T) {
	t.Setenv(httpTimeoutEnvKey, "")
	if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
		t.Fatalf("expected default timeout, got %v", got)
	}

	t.Setenv(httpTimeoutEnvKey, "5s")
	if got := httpTimeoutFromEnv(); got != 5*time.Second {
		t.Fatalf("expected 5s, got %v", got)
	}

	t.Setenv(httpTimeoutEnvKey, "45")
	if got := httpTimeoutFromEnv(); got != 45*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", got)
	}

	t.Setenv(httpTimeoutEnvKey, "bogus")
	if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
		t.Fatalf("expected fallback on bad value, got %v", got)
	}
}

func TestClientDecodesAPIErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:     "transfer has expired",
			Code:      "expired",
			ErrorCode: 2101,
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.Verify(context.Background(), "AAAAAAAAAAAAAAAAAAAAAA", "ABC123")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusGone || apiErr.Code != "expired" || apiErr.ErrorCode != 2101 {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "[]")
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.authToken = "secret-token"
	if _, err := client.ListTransfers(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientDownloadWritesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "ABC123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("X-Archive-Filename", "filedrop-test.zip")
		io.WriteString(w, "zip-bytes")
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	var buf bytes.Buffer
	filename, err := client.DownloadArchive(context.Background(), "AAAAAAAAAAAAAAAAAAAAAA", "ABC123", &buf)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filename != "filedrop-test.zip" {
		t.Fatalf("expected echoed filename, got %q", filename)
	}
	if buf.String() != "zip-bytes" {
		t.Fatalf("body mismatch: %q", buf.String())
	}
}
