package logadapter

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kramer-control/brain-client/blog"
)

func TestZerolog_Log(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerolog(zerolog.New(&buf))

	z.Log(blog.Event{
		ConnectionID: "c1",
		Category:     blog.CategoryState,
		Message:      "Connection Active",
		StateChange:  &blog.StateChangeData{OldState: "AUTHORIZING", NewState: "ACTIVE"},
	})

	out := buf.String()
	assert.Contains(t, out, "Connection Active")
	assert.Contains(t, out, "ACTIVE")
}

func TestSlog_Log(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	s := NewSlog(slog.New(handler))

	s.Log(blog.Event{
		ConnectionID: "c1",
		Category:     blog.CategoryError,
		Message:      "bootstrap failed",
		Error:        &blog.ErrorData{Message: "timeout"},
	})

	out := buf.String()
	assert.Contains(t, out, "bootstrap failed")
	assert.Contains(t, out, "timeout")
}
