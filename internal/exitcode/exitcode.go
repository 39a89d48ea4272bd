package exitcode

import (
	"errors"
	"os"
	"strings"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// NetworkError indicates the session API or stream was unreachable
	NetworkError = 3

	// CacheError indicates the durable cache could not be used
	CacheError = 4

	// ActionError indicates an approval or artifact action was rejected
	ActionError = 5

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var serr *syncerrors.SyncError
	if errors.As(err, &serr) {
		switch {
		case strings.HasPrefix(string(serr.Code), "API-"),
			strings.HasPrefix(string(serr.Code), "STREAM-"):
			return NetworkError
		case strings.HasPrefix(string(serr.Code), "CACHE-"):
			return CacheError
		case strings.HasPrefix(string(serr.Code), "ACTION-"):
			return ActionError
		case strings.HasPrefix(string(serr.Code), "CONFIG-"):
			return UsageError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case NetworkError:
		return "Network error"
	case CacheError:
		return "Cache error"
	case ActionError:
		return "Action rejected"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
