package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "FILEDROP_HTTP_TIMEOUT"
	apiTokenEnvKey     = "FILEDROP_API_TOKEN"
)

// Client is a simple HTTP client for the filedrop API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client. The admin bearer token is read from
// FILEDROP_API_TOKEN.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// GetInfo returns server name, version, and limits.
func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

// Login exchanges the admin password for a bearer token.
func (c *Client) Login(ctx context.Context, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, LoginRequest{Password: password}, &resp)
	return resp, err
}

// CreateTransferOptions describes one upload request.
type CreateTransferOptions struct {
	Paths        []string
	ExpiryDays   int
	RequireCode  bool
	MaxDownloads int
	Uploader     string
	NotifyEmail  string
}

// CreateTransfer uploads local files as a new transfer. Streams a multipart
// body so large files are never loaded whole.
func (c *Client) CreateTransfer(ctx context.Context, opts CreateTransferOptions) (CreateTransferResponse, error) {
	var resp CreateTransferResponse
	if len(opts.Paths) == 0 {
		return resp, fmt.Errorf("at least one file is required")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeTransferForm(mw, opts)
		if closeErr := mw.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", pr)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuthHeader(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

// Verify checks access and returns transfer contents without consuming a
// download.
func (c *Client) Verify(ctx context.Context, id, code string) (VerifyResponse, error) {
	var resp VerifyResponse
	err := c.do(ctx, http.MethodPost, "/v1/transfers/"+url.PathEscape(id)+"/verify", nil, VerifyRequest{Code: code}, &resp)
	return resp, err
}

// DownloadFile streams one file's bytes to w and returns the served filename.
func (c *Client) DownloadFile(ctx context.Context, id, fileID, code string, w io.Writer) (string, error) {
	return c.download(ctx, "/v1/transfers/"+url.PathEscape(id)+"/files/"+url.PathEscape(fileID), code, w)
}

// DownloadArchive streams the whole transfer as a ZIP to w and returns the
// archive filename.
func (c *Client) DownloadArchive(ctx context.Context, id, code string, w io.Writer) (string, error) {
	return c.download(ctx, "/v1/transfers/"+url.PathEscape(id)+"/archive", code, w)
}

// ListTransfers returns all transfers (admin).
func (c *Client) ListTransfers(ctx context.Context) ([]TransferSummary, error) {
	var resp []TransferSummary
	err := c.do(ctx, http.MethodGet, "/v1/transfers", nil, nil, &resp)
	return resp, err
}

// DeleteTransfer removes one transfer and its blobs (admin).
func (c *Client) DeleteTransfer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/transfers/"+url.PathEscape(id), nil, nil, nil)
}

// AdminCleanup sweeps expired transfers (admin).
func (c *Client) AdminCleanup(ctx context.Context, req CleanupRequest) (CleanupResponse, error) {
	var resp CleanupResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/cleanup", nil, req, &resp)
	return resp, err
}

func writeTransferForm(mw *multipart.Writer, opts CreateTransferOptions) error {
	if err := mw.WriteField("expiry_days", strconv.Itoa(opts.ExpiryDays)); err != nil {
		return err
	}
	if err := mw.WriteField("require_code", strconv.FormatBool(opts.RequireCode)); err != nil {
		return err
	}
	if opts.MaxDownloads > 0 {
		if err := mw.WriteField("max_downloads", strconv.Itoa(opts.MaxDownloads)); err != nil {
			return err
		}
	}
	if opts.Uploader != "" {
		if err := mw.WriteField("uploader", opts.Uploader); err != nil {
			return err
		}
	}
	if opts.NotifyEmail != "" {
		if err := mw.WriteField("email", opts.NotifyEmail); err != nil {
			return err
		}
	}

	for _, path := range opts.Paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}
	return nil
}

func (c *Client) download(ctx context.Context, path, code string, w io.Writer) (string, error) {
	endpoint := c.baseURL + path
	if code != "" {
		endpoint += "?code=" + url.QueryEscape(code)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", err
	}
	return filenameFromResponse(resp), nil
}

func filenameFromResponse(resp *http.Response) string {
	if echo := resp.Header.Get("X-Archive-Filename"); echo != "" {
		return echo
	}
	disposition := resp.Header.Get("Content-Disposition")
	const marker = `filename="`
	if i := strings.Index(disposition, marker); i >= 0 {
		rest := disposition[i+len(marker):]
		if j := strings.Index(rest, `"`); j >= 0 {
			return rest[:j]
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: resp.Status}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
