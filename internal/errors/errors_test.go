package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
)

func TestPrepError(t *testing.T) {
	tests := []struct {
		name        string
		errorType   ErrorType
		path        string
		message     string
		cause       error
		expectedMsg string
	}{
		{
			name:        "error with path",
			errorType:   ErrTypeFile,
			path:        "/addon/plugin.cfg",
			message:     "file not found",
			expectedMsg: "file error for /addon/plugin.cfg: file not found",
		},
		{
			name:        "error without path",
			errorType:   ErrTypeConfig,
			message:     "invalid configuration",
			expectedMsg: "config error: invalid configuration",
		},
		{
			name:        "error with cause",
			errorType:   ErrTypePromotion,
			path:        "/addon/.gitignore.release",
			message:     "cannot promote",
			cause:       errors.New("no such file or directory"),
			expectedMsg: "promotion error for /addon/.gitignore.release: cannot promote: no such file or directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &PrepError{
				Type:    tt.errorType,
				Path:    tt.path,
				Message: tt.message,
				Cause:   tt.cause,
			}

			if err.Error() != tt.expectedMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.expectedMsg)
			}
			if err.Unwrap() != tt.cause {
				t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), tt.cause)
			}
			if err.Step() != string(tt.errorType) {
				t.Errorf("Step() = %q, want %q", err.Step(), tt.errorType)
			}
		})
	}
}

func TestPrepErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		expect bool
	}{
		{
			name:   "same type matches",
			err:    NewPromotionError("a", "x", nil),
			target: &PrepError{Type: ErrTypePromotion},
			expect: true,
		},
		{
			name:   "different type does not match",
			err:    NewConfigError("x", nil),
			target: &PrepError{Type: ErrTypeFile},
			expect: false,
		},
		{
			name:   "wrapped in fmt error",
			err:    fmt.Errorf("step failed: %w", NewPatternError("plugin.cfg", "name")),
			target: &PrepError{Type: ErrTypePattern},
			expect: true,
		},
		{
			name:   "wrapped in step error",
			err:    &StepError{Step: "promotion", Err: NewPromotionError("a", "x", nil)},
			target: &PrepError{Type: ErrTypePromotion},
			expect: true,
		},
		{
			name:   "not found nested under promotion",
			err:    NewPromotionError("a", "x", NewFileNotFoundError("a", fs.ErrNotExist)),
			target: fs.ErrNotExist,
			expect: true,
		},
		{
			name:   "non prep target",
			err:    NewFileError("a", "x", nil),
			target: errors.New("other"),
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.expect {
				t.Errorf("errors.Is() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestPatternError(t *testing.T) {
	err := NewPatternError("/addon/plugin.cfg", "version")

	if err.Field != "version" {
		t.Errorf("Field = %q, want %q", err.Field, "version")
	}
	if err.Type != ErrTypePattern {
		t.Errorf("Type = %q, want %q", err.Type, ErrTypePattern)
	}
	want := `rewrite error for /addon/plugin.cfg: no version = "..." assignment found`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapFileError(t *testing.T) {
	if err := WrapFileError("x", nil); err != nil {
		t.Errorf("WrapFileError(nil) = %v, want nil", err)
	}

	_, statErr := os.Stat(t.TempDir() + "/missing")
	if statErr == nil {
		t.Fatal("expected stat error for missing file")
	}

	err := WrapFileError("missing", statErr)
	var notFound *FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("WrapFileError() = %T, want *FileNotFoundError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("WrapFileError() lost fs.ErrNotExist")
	}

	denied := &fs.PathError{Op: "open", Path: "locked", Err: fs.ErrPermission}

	err = WrapFileError("locked", denied)
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("WrapFileError() = %T, want *FileError", err)
	}
	if fileErr.Message != "permission denied" {
		t.Errorf("Message = %q, want %q", fileErr.Message, "permission denied")
	}

	err = WrapFileError("other", errors.New("disk on fire"))
	if !errors.As(err, &fileErr) {
		t.Fatalf("WrapFileError() = %T, want *FileError", err)
	}
	if fileErr.Message != "file operation failed" {
		t.Errorf("Message = %q, want %q", fileErr.Message, "file operation failed")
	}
}

func TestWrapFileOpError(t *testing.T) {
	denied := &fs.PathError{Op: "open", Path: "locked", Err: fs.ErrPermission}

	err := WrapFileOpError("locked", OpRead, denied)
	var notReadable *FileNotReadableError
	if !errors.As(err, &notReadable) {
		t.Errorf("read: WrapFileOpError() = %T, want *FileNotReadableError", err)
	}
	var notWritable *FileNotWritableError
	if errors.As(err, &notWritable) {
		t.Error("read: permission failure reported as not writable")
	}

	err = WrapFileOpError("locked", OpWrite, denied)
	if !errors.As(err, &notWritable) {
		t.Errorf("write: WrapFileOpError() = %T, want *FileNotWritableError", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("write: WrapFileOpError() lost fs.ErrPermission")
	}

	err = WrapFileOpError("gone", OpRead, fs.ErrNotExist)
	var notFound *FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("missing: WrapFileOpError() = %T, want *FileNotFoundError", err)
	}
}

func TestStepError(t *testing.T) {
	cause := NewFileNotFoundError("/addon/plugin.cfg", fs.ErrNotExist)
	err := &StepError{Step: "rewrite", Err: cause}

	want := "rewrite step failed: " + cause.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("StepError does not unwrap to its cause")
	}
}

func TestFailedStep(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "step error names its step",
			err:  &StepError{Step: "rewrite", Err: NewFileNotFoundError("plugin.cfg", nil)},
			want: "rewrite",
		},
		{
			name: "outermost step wins",
			err:  fmt.Errorf("run: %w", &StepError{Step: "promotion", Err: &StepError{Step: "rewrite", Err: errors.New("x")}}),
			want: "promotion",
		},
		{
			name: "typed error without step",
			err:  NewConfigError("bad flag", nil),
			want: "config",
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailedStep(tt.err); got != tt.want {
				t.Errorf("FailedStep() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAsPrepError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOK   bool
	}{
		{"file not found", NewFileNotFoundError("a", nil), ErrTypeFile, true},
		{"promotion wrapped", fmt.Errorf("run: %w", NewPromotionError("a", "x", nil)), ErrTypePromotion, true},
		{"pattern", NewPatternError("a", "name"), ErrTypePattern, true},
		{"rewrite", NewRewriteError("a", "write failed", nil), ErrTypePattern, true},
		{"backup", NewBackupError("a", "x", nil), ErrTypeBackup, true},
		{"plain", errors.New("plain"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe, ok := AsPrepError(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("AsPrepError() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && pe.Type != tt.wantType {
				t.Errorf("AsPrepError() type = %q, want %q", pe.Type, tt.wantType)
			}
		})
	}
}
