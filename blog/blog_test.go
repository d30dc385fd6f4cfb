package blog

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(e Event) { r.events = append(r.events, e) }

func TestNoopLogger(t *testing.T) {
	var l NoopLogger
	l.Log(Event{Message: "ignored"}) // must not panic
}

func TestMultiLogger_FansOutInOrder(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, b, nil)

	m.Log(Event{Message: "hi"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "hi", a.events[0].Message)
}

func TestFileLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.cbor")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	want := Event{
		Timestamp:    time.Now().Truncate(time.Second),
		ConnectionID: "conn-1",
		Endpoint:     "127.0.0.1:8000",
		Category:     CategoryState,
		Message:      "Connection Active",
		StateChange:  &StateChangeData{OldState: "AUTHORIZING", NewState: "ACTIVE"},
	}
	fl.Log(want)
	require.NoError(t, fl.Close())

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, want.ConnectionID, got.ConnectionID)
	assert.Equal(t, want.Message, got.Message)
	assert.Equal(t, want.StateChange.NewState, got.StateChange.NewState)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileLogger_LogAfterCloseIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.cbor")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close()) // second close is a no-op

	fl.Log(Event{Message: "dropped"}) // must not panic
}
