// Package errors provides a hierarchical error system for nightly preparation.
// It implements typed errors that can be inspected and handled differently
// based on the step that failed, so the command line can tell the user whether
// promotion, the plugin rewrite, or configuration went wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// ErrorType represents the category of error for classification and reporting.
type ErrorType string

// Error type constants define the categories of errors that can occur while
// preparing a nightly build. Every category is fatal for the run.
const (
	ErrTypeFile      ErrorType = "file"
	ErrTypeConfig    ErrorType = "config"
	ErrTypePromotion ErrorType = "promotion"
	ErrTypePattern   ErrorType = "rewrite"
	ErrTypeBackup    ErrorType = "backup"
)

// PrepError is the base error type that provides structured error information.
// Specific error types embed it so that callers can match on the category
// with errors.Is and still reach the underlying cause with errors.Unwrap.
type PrepError struct {
	Type    ErrorType
	Path    string
	Message string
	Cause   error
}

func (e *PrepError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s error for %s: %s", e.Type, e.Path, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PrepError) Unwrap() error {
	return e.Cause
}

// Is implements error identity checking so that errors.Is matches any
// PrepError of the same Type anywhere in the chain.
func (e *PrepError) Is(target error) bool {
	t, ok := target.(*PrepError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Step returns the name of the failed step, used in the exit diagnostic.
func (e *PrepError) Step() string {
	return string(e.Type)
}

// Base returns the PrepError itself. The method is promoted to every typed
// error embedding PrepError, which lets AsPrepError find it.
func (e *PrepError) Base() *PrepError {
	return e
}

// FileError represents file system operation errors.
type FileError struct {
	*PrepError
}

// NewFileError creates a file operation error with context.
func NewFileError(path, message string, cause error) *FileError {
	return &FileError{
		PrepError: &PrepError{
			Type:    ErrTypeFile,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// FileNotFoundError represents errors when a required file cannot be located.
type FileNotFoundError struct {
	*FileError
}

// NewFileNotFoundError creates a file not found error.
func NewFileNotFoundError(path string, cause error) *FileNotFoundError {
	return &FileNotFoundError{
		FileError: NewFileError(path, "file not found", cause),
	}
}

// FileNotWritableError represents errors when files cannot be written to.
type FileNotWritableError struct {
	*FileError
}

// NewFileNotWritableError creates a file write permission error.
func NewFileNotWritableError(path string, cause error) *FileNotWritableError {
	return &FileNotWritableError{
		FileError: NewFileError(path, "file not writable", cause),
	}
}

// FileNotReadableError represents errors when files cannot be read from.
type FileNotReadableError struct {
	*FileError
}

// NewFileNotReadableError creates a file read permission error.
func NewFileNotReadableError(path string, cause error) *FileNotReadableError {
	return &FileNotReadableError{
		FileError: NewFileError(path, "file not readable", cause),
	}
}

// ConfigError represents configuration validation errors.
// These are raised before any file is touched.
type ConfigError struct {
	*PrepError
}

// NewConfigError creates a configuration error without path context.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		PrepError: &PrepError{
			Type:    ErrTypeConfig,
			Message: message,
			Cause:   cause,
		},
	}
}

// NewConfigErrorWithPath creates a configuration error with file context.
func NewConfigErrorWithPath(path, message string, cause error) *ConfigError {
	return &ConfigError{
		PrepError: &PrepError{
			Type:    ErrTypeConfig,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// PromotionError represents a failure while promoting a release variant
// over the active file. The cause is usually a FileNotFoundError.
type PromotionError struct {
	*PrepError
}

// NewPromotionError creates a promotion step error.
func NewPromotionError(path, message string, cause error) *PromotionError {
	return &PromotionError{
		PrepError: &PrepError{
			Type:    ErrTypePromotion,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// PatternError represents a field assignment that could not be located in
// the plugin configuration. A missing field would yield an inconsistent
// nightly build, so it is never ignored.
type PatternError struct {
	*PrepError
	Field string
}

// NewPatternError creates a rewrite error for a field whose pattern is absent.
func NewPatternError(path, field string) *PatternError {
	return &PatternError{
		PrepError: &PrepError{
			Type:    ErrTypePattern,
			Path:    path,
			Message: fmt.Sprintf("no %s = \"...\" assignment found", field),
		},
		Field: field,
	}
}

// NewRewriteError creates a rewrite step error that is not about a missing
// pattern, such as an in-place write that failed half way.
func NewRewriteError(path, message string, cause error) *PrepError {
	return &PrepError{
		Type:    ErrTypePattern,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// BackupError represents errors during backup and restore operations.
type BackupError struct {
	*PrepError
}

// NewBackupError creates a backup operation error.
func NewBackupError(path, message string, cause error) *BackupError {
	return &BackupError{
		PrepError: &PrepError{
			Type:    ErrTypeBackup,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// FileOp tells WrapFileError what the failed operation was, so that a
// permission problem is reported as unreadable or unwritable.
type FileOp int

// File operations understood by WrapFileOpError.
const (
	OpAccess FileOp = iota
	OpRead
	OpWrite
)

// WrapFileError converts file system errors into typed errors, classifying
// missing files and permission problems.
func WrapFileError(path string, err error) error {
	return WrapFileOpError(path, OpAccess, err)
}

// WrapFileOpError is WrapFileError for a known operation.
func WrapFileOpError(path string, op FileOp, err error) error {
	if err == nil {
		return nil
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return NewFileNotFoundError(absPath, err)
	case stderrors.Is(err, fs.ErrPermission) && op == OpRead:
		return NewFileNotReadableError(absPath, err)
	case stderrors.Is(err, fs.ErrPermission) && op == OpWrite:
		return NewFileNotWritableError(absPath, err)
	case stderrors.Is(err, fs.ErrPermission):
		return NewFileError(absPath, "permission denied", err)
	default:
		return NewFileError(absPath, "file operation failed", err)
	}
}

// StepError ties an error to the step of the run that produced it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %s", e.Step, e.Err.Error())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep names the step err belongs to: the outermost StepError if
// there is one, otherwise the type of the first PrepError. It returns ""
// for untyped errors.
func FailedStep(err error) string {
	var se *StepError
	if stderrors.As(err, &se) {
		return se.Step
	}
	if pe, ok := AsPrepError(err); ok {
		return pe.Step()
	}
	return ""
}

// AsPrepError finds the first PrepError in err's chain.
func AsPrepError(err error) (*PrepError, bool) {
	var based interface{ Base() *PrepError }
	if stderrors.As(err, &based) {
		return based.Base(), true
	}
	return nil, false
}
