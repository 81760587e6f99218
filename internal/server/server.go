package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/cors"

	"filedrop/internal/blobstore"
	"filedrop/internal/config"
	"filedrop/internal/store"
)

const (
	allowRemoteEnvKey       = "FILEDROP_ALLOW_REMOTE"
	readHeaderTimeout       = 5 * time.Second
	idleTimeout             = 120 * time.Second
	uploadConcurrencyLimit  = 2
	archiveConcurrencyLimit = 4
)

// Server wraps HTTP handlers for the filedrop API.
type Server struct {
	addr           string
	service        *TransferService
	cfg            *config.Config
	logger         *slog.Logger
	version        string
	uploadLimiter  chan struct{}
	archiveLimiter chan struct{}
}

// New creates a new server instance.
func New(addr string, transferStore store.TransferStore, blobs blobstore.BlobStore, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	return &Server{
		addr:           addr,
		service:        NewTransferService(transferStore, blobs, cfg, logger),
		cfg:            cfg,
		logger:         logger,
		version:        "dev",
		uploadLimiter:  make(chan struct{}, uploadConcurrencyLimit),
		archiveLimiter: make(chan struct{}, archiveConcurrencyLimit),
	}
}

// SetVersion overrides the version reported by /v1/info.
func (s *Server) SetVersion(version string) {
	if strings.TrimSpace(version) != "" {
		s.version = version
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		// No write timeout: archive downloads may legitimately run for
		// minutes on slow links.
	}

	return server.ListenAndServe()
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	handler := s.withRequestLogging(s.routes())
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   s.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Access-Code"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Archive-Filename"},
			AllowCredentials: true,
		})
		handler = c.Handler(handler)
	}
	return handler
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
