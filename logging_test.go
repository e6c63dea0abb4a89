package pcore

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpLoggerNeverEnabled(t *testing.T) {
	l := NewNoOpLogger()
	assert.False(t, l.IsEnabled(LogDebug))
	assert.False(t, l.IsEnabled(LogError))
	l.Log(LogEntry{Level: LogError, Message: "ignored"}) // must not panic
}

func TestDefaultLoggerFiltersBelowMinimum(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	l := NewDefaultLogger(w, LogWarn)
	assert.False(t, l.IsEnabled(LogInfo))
	assert.True(t, l.IsEnabled(LogError))

	l.Log(LogEntry{Level: LogInfo, Category: "x", Message: "should not appear"})
	l.Log(LogEntry{Level: LogError, Category: "exec", Message: "boom", Err: errors.New("fail")})
	w.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "fail")
}

func TestSetLoggerInstallsGlobalDefault(t *testing.T) {
	defer SetLogger(nil)

	var captured []LogEntry
	SetLogger(&captureLogger{entries: &captured})
	getLogger().Log(LogEntry{Level: LogInfo, Message: "hi"})
	require.Len(t, captured, 1)
	assert.Equal(t, "hi", captured[0].Message)

	SetLogger(nil)
	assert.IsType(t, &NoOpLogger{}, getLogger())
}

type captureLogger struct {
	entries *[]LogEntry
}

func (c *captureLogger) Log(e LogEntry)            { *c.entries = append(*c.entries, e) }
func (c *captureLogger) IsEnabled(LogLevel) bool    { return true }

func TestLogifaceLoggerRoundTripsThroughWriter(t *testing.T) {
	var written []*logifaceEvent
	writer := logiface.WriterFunc[*logifaceEvent](func(e *logifaceEvent) error {
		written = append(written, e)
		return nil
	})

	l := NewLogifaceLogger(writer)
	require.True(t, l.IsEnabled(LogInfo))

	l.Log(LogEntry{Level: LogInfo, Category: "cache", Cycle: 3, Message: "threshold updated"})
	require.Len(t, written, 1)
	assert.Equal(t, "threshold updated", written[0].message)
	assert.Equal(t, "cache", written[0].fields["category"])
	assert.Equal(t, uint64(3), written[0].fields["cycle"])
}

func TestFilteringLoggerEnableEmitDisableEmitRoundTrip(t *testing.T) {
	var captured []LogEntry
	filter := NewDebugFilter()
	fl := NewFilteringLogger(&captureLogger{entries: &captured}, filter)

	fl.Log(LogEntry{Level: LogDebug, Category: "cache", Message: "before enable"})
	assert.Empty(t, captured, "a channel must be silent until explicitly enabled")

	filter.Enable("cache")
	fl.Log(LogEntry{Level: LogDebug, Category: "cache", Message: "after enable"})
	require.Len(t, captured, 1)
	assert.Equal(t, "after enable", captured[0].Message)

	filter.Disable("cache")
	fl.Log(LogEntry{Level: LogDebug, Category: "cache", Message: "after disable"})
	require.Len(t, captured, 1, "disabling the channel must silence it again")

	filter.Enable("cache")
	fl.Log(LogEntry{Level: LogDebug, Category: "cache", Message: "after re-enable"})
	require.Len(t, captured, 2)
	assert.Equal(t, "after re-enable", captured[1].Message)
}

func TestFilteringLoggerGlobPatternsMatchChannelFamilies(t *testing.T) {
	var captured []LogEntry
	filter := NewDebugFilter()
	filter.Enable("exec.*")
	fl := NewFilteringLogger(&captureLogger{entries: &captured}, filter)

	fl.Log(LogEntry{Level: LogDebug, Category: "exec.step", Message: "matches"})
	fl.Log(LogEntry{Level: LogDebug, Category: "cache", Message: "does not match"})

	require.Len(t, captured, 1)
	assert.Equal(t, "matches", captured[0].Message)
}

func TestFilteringLoggerNeverSuppressesNonDebugLevels(t *testing.T) {
	var captured []LogEntry
	filter := NewDebugFilter() // nothing enabled
	fl := NewFilteringLogger(&captureLogger{entries: &captured}, filter)

	fl.Log(LogEntry{Level: LogError, Category: "exec", Message: "always visible"})
	require.Len(t, captured, 1)
}

func TestLogifaceLevelConversionRoundTrips(t *testing.T) {
	for _, lvl := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		assert.Equal(t, lvl, fromLogifaceLevel(toLogifaceLevel(lvl)))
	}
}
