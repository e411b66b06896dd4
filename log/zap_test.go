// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With Info level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Info("node joined")

		entry := decode(t, buffer)
		assert.Equal(t, "node joined", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, InfoLevel, logger.LogLevel())

		buffer.Reset()
		logger.Debug("skipped")
		assert.Empty(t, buffer.String())
		assert.False(t, logger.Enabled(DebugLevel))
		assert.True(t, logger.Enabled(ErrorLevel))
	})
	t.Run("With formatted entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)

		logger.Debugf("sync %s", "instances/svc1")
		entry := decode(t, buffer)
		assert.Equal(t, "sync instances/svc1", entry["msg"])
		assert.Equal(t, "debug", entry["level"])

		buffer.Reset()
		logger.Warnf("peer %d down", 2)
		entry = decode(t, buffer)
		assert.Equal(t, "peer 2 down", entry["msg"])
		assert.Equal(t, "warn", entry["level"])

		buffer.Reset()
		logger.Errorf("verify failed: %v", errors.New("boom"))
		entry = decode(t, buffer)
		assert.Equal(t, "verify failed: boom", entry["msg"])
		assert.Equal(t, "error", entry["level"])
	})
	t.Run("With fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer).With("node", "node-1", "members", 3, "ready", true, "timeout", time.Second, "dangling")
		logger.Info("started")

		entry := decode(t, buffer)
		assert.Equal(t, "node-1", entry["node"])
		assert.EqualValues(t, 3, entry["members"])
		assert.Equal(t, true, entry["ready"])
		assert.Equal(t, "1s", entry["timeout"])
		assert.Equal(t, "dangling", entry["_"])
	})
	t.Run("With no fields returns the same logger", func(t *testing.T) {
		logger := NewZap(InfoLevel, io.Discard)
		assert.Same(t, logger, logger.With())
		assert.Same(t, logger, logger.With(1, "not a key"))
	})
	t.Run("With panic", func(t *testing.T) {
		logger := NewZap(PanicLevel, io.Discard)
		assert.Equal(t, PanicLevel, logger.LogLevel())
		assert.Panics(t, func() { logger.Panic("panic") })
		assert.Panics(t, func() { logger.Panicf("panic %d", 1) })
	})
	t.Run("With outputs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)
		require.Len(t, logger.LogOutput(), 1)
		require.NotNil(t, logger.StdLogger())
		require.NoError(t, logger.Flush())
	})
}

func TestDiscard(t *testing.T) {
	logger := DiscardLogger
	logger.Info("ignored")
	logger.Errorf("ignored %s", "too")
	assert.False(t, logger.Enabled(ErrorLevel))
	assert.Equal(t, InvalidLevel, logger.LogLevel())
	assert.Equal(t, logger, logger.With("key", "value"))
	assert.NotNil(t, logger.StdLogger())
	assert.Len(t, logger.LogOutput(), 1)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INVALID", Level(42).String())
}

func decode(t *testing.T, buffer *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.NotEmpty(t, lines)
	entry := make(map[string]any)
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}
