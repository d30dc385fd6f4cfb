// Package logadapter ships ready-made blog.Logger implementations so
// applications don't have to write their own just to get structured
// output. The client never imports this package itself — wiring a
// logadapter.Logger in is the caller's choice, keeping logging a true
// external collaborator per spec §1.
package logadapter

import (
	"github.com/rs/zerolog"

	"github.com/kramer-control/brain-client/blog"
)

// Zerolog writes blog.Events through a zerolog.Logger.
type Zerolog struct {
	logger zerolog.Logger
}

// NewZerolog wraps logger.
func NewZerolog(logger zerolog.Logger) *Zerolog {
	return &Zerolog{logger: logger}
}

// Log writes event as a structured zerolog entry at Debug level,
// Error level for blog.CategoryError.
func (z *Zerolog) Log(event blog.Event) {
	level := zerolog.DebugLevel
	if event.Category == blog.CategoryError {
		level = zerolog.ErrorLevel
	}

	e := z.logger.WithLevel(level).
		Str("conn_id", event.ConnectionID).
		Str("category", event.Category.String())

	if event.Endpoint != "" {
		e = e.Str("endpoint", event.Endpoint)
	}
	if dir := event.Direction.String(); dir != "" {
		e = e.Str("direction", dir)
	}
	if transport := event.Transport.String(); transport != "" {
		e = e.Str("transport", transport)
	}
	if event.DeviceID != "" {
		e = e.Str("device_id", event.DeviceID)
	}
	if sc := event.StateChange; sc != nil {
		e = e.Str("old_state", sc.OldState).Str("new_state", sc.NewState)
	}
	if errData := event.Error; errData != nil {
		e = e.Str("error", errData.Message)
		if errData.Code != "" {
			e = e.Str("error_code", errData.Code)
		}
	}

	e.Msg(event.Message)
}

var _ blog.Logger = (*Zerolog)(nil)
