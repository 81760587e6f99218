package main

import (
	"errors"
	"strings"
	"testing"

	"filedrop/internal/api"
)

func TestFormatCLIErrorUnauthorizedHint(t *testing.T) {
	err := &api.APIError{Status: 401, Code: "unauthorized", Message: "missing bearer token"}
	lines := formatCLIError(err)
	if len(lines) < 2 {
		t.Fatalf("expected hint line, got %v", lines)
	}
	if !strings.Contains(lines[1], "filedrop login") {
		t.Fatalf("expected login hint, got %q", lines[1])
	}
}

func TestFormatCLIErrorForbiddenHint(t *testing.T) {
	err := &api.APIError{Status: 403, Code: "forbidden", Message: "invalid access code"}
	lines := formatCLIError(err)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "access code") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected access code hint, got %v", lines)
	}
}

func TestFormatCLIErrorPlainError(t *testing.T) {
	lines := formatCLIError(errors.New("boom"))
	if len(lines) != 1 || lines[0] != "boom" {
		t.Fatalf("expected single error line, got %v", lines)
	}
}

func TestFormatCLIErrorNil(t *testing.T) {
	if lines := formatCLIError(nil); lines != nil {
		t.Fatalf("expected nil, got %v", lines)
	}
}
