package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/amnyam666/tgdailybot/internal/logger"
)

var (
	// ErrParse is returned when a reminder date/time cannot be decomposed into components
	ErrParse = errors.New("invalid date/time, expected YYYY-MM-DD HH:MM")
	// ErrPastInstant is returned when a reminder would fire in the past
	ErrPastInstant = errors.New("reminder time is in the past")
	// ErrUnsupportedZone marks a timezone outside the supported set.
	// Callers fall back to the default zone instead of surfacing it.
	ErrUnsupportedZone = errors.New("unsupported timezone")
	// ErrTaskText is returned for empty or oversized task text
	ErrTaskText = errors.New("invalid task text")
	// ErrNotFound is returned by stores when a task does not exist
	ErrNotFound = errors.New("task not found")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
