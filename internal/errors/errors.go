package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Cache errors (CACHE-001 to CACHE-099)
	ErrCodeCacheMiss     ErrorCode = "CACHE-001"
	ErrCodeCacheCorrupt  ErrorCode = "CACHE-002"
	ErrCodeCacheStale    ErrorCode = "CACHE-003"
	ErrCodeCacheWrite    ErrorCode = "CACHE-004"
	ErrCodeCacheChecksum ErrorCode = "CACHE-005"

	// Stream errors (STREAM-001 to STREAM-099)
	ErrCodeStreamUnavailable ErrorCode = "STREAM-001"
	ErrCodeStreamClosed      ErrorCode = "STREAM-002"
	ErrCodeStreamFrame       ErrorCode = "STREAM-003"
	ErrCodeStreamNotLive     ErrorCode = "STREAM-004"

	// Event errors (EVENT-001 to EVENT-099)
	ErrCodeEventPayload   ErrorCode = "EVENT-001"
	ErrCodeEventSchema    ErrorCode = "EVENT-002"
	ErrCodeEventDuplicate ErrorCode = "EVENT-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest     ErrorCode = "API-001"
	ErrCodeAPIStatus      ErrorCode = "API-002"
	ErrCodeAPIDecode      ErrorCode = "API-003"
	ErrCodeAPISessionGone ErrorCode = "API-004"

	// Action errors (ACTION-001 to ACTION-099)
	ErrCodeActionApproval ErrorCode = "ACTION-001"
	ErrCodeActionArtifact ErrorCode = "ACTION-002"

	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound  ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-002"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-003"
)

// SyncError represents an enhanced error with code, suggestions, and cause
type SyncError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  - %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// New creates a new SyncError
func New(code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new SyncError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *SyncError) WithSuggestions(suggestions ...string) *SyncError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors for frequently used errors

// NewStreamUnavailableError signals that the server cannot serve an event
// stream for this session and the caller should fall back to polling.
func NewStreamUnavailableError(sessionID string, contentType string) *SyncError {
	return New(ErrCodeStreamUnavailable, fmt.Sprintf("event stream unavailable for session %s (content type %q)", sessionID, contentType)).
		WithSuggestion("The engine falls back to snapshot polling automatically").
		WithSuggestion("Check that the server exposes GET /sessions/{id}/stream")
}

// NewCacheCorruptError creates a corrupt cache entry error
func NewCacheCorruptError(sessionID string, cause error) *SyncError {
	return Wrap(ErrCodeCacheCorrupt, fmt.Sprintf("cached graph for session %s is corrupt", sessionID), cause).
		WithSuggestion("The entry is treated as a cache miss and evicted")
}

// NewEventPayloadError creates a malformed event payload error
func NewEventPayloadError(eventType string, cause error) *SyncError {
	return Wrap(ErrCodeEventPayload, fmt.Sprintf("malformed payload for event type %s", eventType), cause).
		WithSuggestion("The event is dropped; subsequent events continue to be processed")
}

// NewAPIStatusError creates an unexpected HTTP status error
func NewAPIStatusError(method, path string, status int) *SyncError {
	return New(ErrCodeAPIStatus, fmt.Sprintf("%s %s returned status %d", method, path, status)).
		WithSuggestion("Check the session id and server availability")
}

// NewConfigUnmarshalError creates a config parse error
func NewConfigUnmarshalError(path string, cause error) *SyncError {
	return Wrap(ErrCodeConfigUnmarshal, fmt.Sprintf("failed to parse config file: %s", path), cause).
		WithSuggestion("Check the YAML syntax of the config file")
}
