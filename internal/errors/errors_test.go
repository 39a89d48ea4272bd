package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeCacheMiss, "test error message")

	if err.Code != ErrCodeCacheMiss {
		t.Errorf("expected code %s, got %s", ErrCodeCacheMiss, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeCacheCorrupt, "failed to read cache entry", cause)

	if err.Code != ErrCodeCacheCorrupt {
		t.Errorf("expected code %s, got %s", ErrCodeCacheCorrupt, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	// Test unwrapping
	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *SyncError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeStreamUnavailable, "stream unavailable"),
			wantCode: "STREAM-001",
			wantMsg:  "stream unavailable",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeAPIDecode, "decode failed", fmt.Errorf("unexpected EOF")),
			wantCode: "API-003",
			wantMsg:  "unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestion("check the poll interval").
		WithSuggestion("check the cache dir")

	if len(err.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "check the poll interval") {
		t.Errorf("error string should contain first suggestion, got: %s", errStr)
	}
}

func TestConstructors(t *testing.T) {
	streamErr := NewStreamUnavailableError("sess-1", "application/json")
	if streamErr.Code != ErrCodeStreamUnavailable {
		t.Errorf("expected STREAM-001, got %s", streamErr.Code)
	}
	if !strings.Contains(streamErr.Message, "sess-1") {
		t.Errorf("message should name the session, got: %s", streamErr.Message)
	}

	apiErr := NewAPIStatusError("GET", "/sessions/s1/tasks", 503)
	if apiErr.Code != ErrCodeAPIStatus {
		t.Errorf("expected API-002, got %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "503") {
		t.Errorf("message should include the status code, got: %s", apiErr.Message)
	}
}
