package errors

import (
	"fmt"
	"os"

	"github.com/julianstephens/hemma/internal/logger"
)

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

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

// Guard runs a best-effort operation. A returned error or a panic is logged
// under op and reported as false; nothing propagates to the caller.
func Guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic", "op", op, "panic", r)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		logger.Warn("Operation failed", "op", op, "error", err)
		return false
	}
	return true
}
