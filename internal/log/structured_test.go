package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructured(t *testing.T) {
	var buf bytes.Buffer
	lgr, flush := NewStructured(0, &buf)

	lgr.Info("promoted", PathKey, "/addon/glecs.gdextension")
	lgr.V(1).Info("hidden at info level")
	flush()

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "promoted", line[MessageKey])
	assert.Equal(t, "/addon/glecs.gdextension", line[PathKey])
	assert.Contains(t, line, TimeStampKey)
}

func TestNewStructuredDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr, flush := NewStructured(-1, &buf)

	lgr.V(1).Info("debug detail")
	flush()

	assert.Contains(t, buf.String(), "debug detail")
}

func TestNewStructuredErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr, flush := NewStructured(2, &buf)

	lgr.Info("suppressed")
	lgr.Error(errors.New("boom"), "rewrite failed")
	flush()

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "rewrite failed")
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	lgr, _ := NewStructured(0, &buf)

	ctx := WithLogger(context.Background(), lgr)
	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")

	// A bare context yields a discarding logger.
	FromContext(context.Background()).Info("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(syscall.EINVAL))
	assert.True(t, isIgnorableSyncError(errors.New("The handle is invalid.")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}
