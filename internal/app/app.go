// Package app provides the shared entry-point plumbing for the fetch tools:
// the user-error/transport-error boundary, exit codes, signal handling and
// the run preamble logged at startup.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tickhist/internal/timeutil"
)

// Exit codes following standard conventions.
const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitFailure   = 2
	ExitInterrupt = 130
)

// UserError marks a failure caused by bad command-line input. It is printed
// as a plain message and exits with status 1, without a stack trace or log
// noise. Everything else that reaches the top level is treated as fatal and
// logged in full.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// Userf constructs a UserError from a format string.
func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err is (or wraps) a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// Run executes fn with a signal-aware context and translates its error into
// a process exit code for the caller to pass to os.Exit. User errors print
// their message only; any other error is logged as fatal.
func Run(logger *slog.Logger, fn func(ctx context.Context) error) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return ExitSuccess
	}

	var ue *UserError
	if errors.As(err, &ue) {
		fmt.Fprintln(os.Stderr, ue.Message)
		return ExitUserError
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn("interrupted")
		return ExitInterrupt
	}

	logger.Error("run failed", "error", err)
	return ExitFailure
}

// ParseDateRange validates a [from, upto) day range given in YYYYMMDD or
// YYYY-MM-DD form. Failures are user errors.
func ParseDateRange(fromArg, uptoArg string) (time.Time, time.Time, error) {
	from, err := timeutil.ParseDate(fromArg)
	if err != nil {
		return time.Time{}, time.Time{}, Userf("%v", err)
	}
	upto, err := timeutil.ParseDate(uptoArg)
	if err != nil {
		return time.Time{}, time.Time{}, Userf("%v", err)
	}
	if !from.Before(upto) {
		return time.Time{}, time.Time{}, Userf("'from' date must be before 'upto' date")
	}
	return from, upto, nil
}

// LogPreamble records the invocation context at the start of a run so logs
// from different runs can be told apart.
func LogPreamble(logger *slog.Logger) {
	cwd, _ := os.Getwd()
	logger.Info("run started",
		"bin", filepath.Base(os.Args[0]),
		"args", os.Args[1:],
		"cwd", cwd,
		"pid", os.Getpid(),
		"run_id", uuid.NewString(),
	)
}
