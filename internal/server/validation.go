package server

import (
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	transferIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{22}$`)
	fileIDRegex     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func validateTransferID(id string) bool {
	return transferIDRegex.MatchString(id)
}

func validateFileID(id string) bool {
	return fileIDRegex.MatchString(id)
}

// sanitizeFilename reduces an uploaded filename to a safe flat name. Path
// separators and control characters never survive.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case r == '/' || r == ':':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "file"
	}
	return cleaned
}

// accessCodeFromRequest reads the candidate code from the query string or
// the X-Access-Code header, query first.
func accessCodeFromRequest(r *http.Request) string {
	if code := r.URL.Query().Get("code"); code != "" {
		return code
	}
	return r.Header.Get("X-Access-Code")
}

func parseFormInt(r *http.Request, field string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequestCode(fmt.Errorf("invalid %s: %q", field, raw), ErrCodeInvalidForm)
	}
	return value, nil
}

func parseFormBool(r *http.Request, field string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequestCode(fmt.Errorf("invalid %s: %q", field, raw), ErrCodeInvalidForm)
	}
	return value, nil
}
