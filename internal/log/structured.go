package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

// Structured log keys.
const (
	CommandKey   = "command"
	DirectoryKey = "directory"
	StepKey      = "step"
	PathKey      = "path"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

// NewStructured builds a logr.Logger backed by zap that writes JSON lines to
// out. level follows zapcore.Level: -1 debug, 0 info, 1 warn, 2 error.
// The returned function flushes buffered entries.
func NewStructured(level int8, out io.Writer) (logr.Logger, func()) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	)
	zl := zap.New(core, zap.AddCaller())

	return zapr.NewLogger(zl), func() { sync(zl) }
}

// WithLogger returns a context carrying lgr.
func WithLogger(ctx context.Context, lgr logr.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, lgr)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	if lgr, ok := ctx.Value(loggerContextKey{}).(logr.Logger); ok {
		return lgr
	}
	return logr.Discard()
}

func sync(zl *zap.Logger) {
	if err := zl.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

// isIgnorableSyncError returns true for the errors Sync reports on pipes
// and terminals.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}
