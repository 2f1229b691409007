package services_test

import (
	"errors"
	"strings"
	"testing"

	"gamesheet/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrCatalog, "igdb", "search", "request failed", base)
	if !errors.Is(err, services.ErrCatalog) {
		t.Fatalf("expected catalog marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to be preserved")
	}
	if !strings.Contains(err.Error(), "igdb: search: request failed") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "sheet", "write", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsRunFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"auth", services.Wrap(services.ErrAuth, "twitch", "exchange", "", nil), true},
		{"sheet write", services.Wrap(services.ErrSheetWrite, "sheet", "write", "", nil), true},
		{"catalog", services.Wrap(services.ErrCatalog, "igdb", "search", "", nil), false},
		{"rate limited", services.Wrap(services.ErrRateLimited, "igdb", "search", "", nil), false},
	}
	for _, tc := range cases {
		if got := services.IsRunFatal(tc.err); got != tc.want {
			t.Fatalf("%s: IsRunFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsRowRetryable(t *testing.T) {
	if services.IsRowRetryable(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if services.IsRowRetryable(services.Wrap(services.ErrAuth, "twitch", "exchange", "", nil)) {
		t.Fatal("auth errors must not retry at row level")
	}
	if !services.IsRowRetryable(services.Wrap(services.ErrCatalog, "igdb", "search", "", nil)) {
		t.Fatal("catalog errors should retry")
	}
	if !services.IsRowRetryable(errors.New("plain failure")) {
		t.Fatal("unclassified errors default to retryable")
	}
}
