package brain

import (
	"context"

	"github.com/kramer-control/brain-client/internal/device"
	"github.com/kramer-control/brain-client/internal/driver"
)

// deviceCore is the internal device object a Device façade wraps.
type deviceCore = device.Device

// State is a normalised state record (spec §3 "State record").
type State struct {
	ID              string
	Name            string
	Type            string
	Value           string
	NormalizedValue string
	IsCustomState   bool
}

// Device is the public per-logical-device handle (spec §C5).
type Device struct {
	core *deviceCore
}

// ID reports the device's stable identifier.
func (d *Device) ID() string { return d.core.ID() }

// Name reports the device's display name.
func (d *Device) Name() string { return d.core.Name() }

// IsSystemDevice reports whether this is the synthetic system device.
func (d *Device) IsSystemDevice() bool { return d.core.IsSystemDevice() }

// GetStates returns the full normalised state catalog, arming the
// subscription and blocking until the first inbound update on first
// call (spec §4.5).
func (d *Device) GetStates(ctx context.Context) (map[string]State, error) {
	states, err := d.core.GetStates(ctx)
	if err != nil {
		return nil, err
	}
	return toStateMap(states), nil
}

// GetCustomStates returns only custom-flagged states; empty on a
// non-system device.
func (d *Device) GetCustomStates(ctx context.Context) (map[string]State, error) {
	states, err := d.core.GetCustomStates(ctx)
	if err != nil {
		return nil, err
	}
	return toStateMap(states), nil
}

// GetState looks up a state by ID or name with the same wait-once
// semantics as GetStates.
func (d *Device) GetState(ctx context.Context, keyOrName string) (State, error) {
	st, err := d.core.GetState(ctx, keyOrName)
	if err != nil {
		return State{}, err
	}
	return toState(st), nil
}

// GetCommands returns the IDs of every command in the catalog.
func (d *Device) GetCommands() []string {
	cmds := d.core.GetCommands()
	out := make([]string, 0, len(cmds))
	for id := range cmds {
		out = append(out, id)
	}
	return out
}

// SendCommand builds and sends a macro for the named command and
// blocks until every referenced state has been updated (spec §4.5).
func (d *Device) SendCommand(ctx context.Context, keyOrName string, params map[string]string) (map[string]string, error) {
	return d.core.SendCommand(ctx, keyOrName, params)
}

// SetCustomState mutates a system-device custom state (spec §4.5).
func (d *Device) SetCustomState(ctx context.Context, keyOrName, value string) (State, error) {
	st, err := d.core.SetCustomState(ctx, keyOrName, value)
	if err != nil {
		return State{}, err
	}
	return toState(st), nil
}

// On subscribes to this device's STATE_CHANGED event, arming the
// watch on first listener and tearing it down when the last is
// removed (spec §4.5 subscription arbitration).
func (d *Device) On(event string, fn func(payload any)) func() {
	if event == EventStateChanged {
		d.core.Watch()
	}
	unsub := d.core.Bus().On(event, func(payload any) { fn(payload) })
	if event != EventStateChanged {
		return unsub
	}
	return func() {
		unsub()
		if d.core.Bus().ListenerCount(EventStateChanged) == 0 {
			d.core.Unwatch()
		}
	}
}

func toState(st *driver.State) State {
	return State{
		ID:              st.ID,
		Name:            st.Name,
		Type:            string(st.Type),
		Value:           st.Value,
		NormalizedValue: st.NormalizedValue,
		IsCustomState:   st.IsCustomState,
	}
}

func toStateMap(states map[string]*driver.State) map[string]State {
	out := make(map[string]State, len(states))
	for id, st := range states {
		out[id] = toState(st)
	}
	return out
}
