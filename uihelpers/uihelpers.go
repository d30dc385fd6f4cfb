// Package uihelpers provides thin "observable cell" adapters so a
// reactive UI can observe a device, a device state, or the connection
// status without reaching into the event bus directly (spec §C11,
// §6). These are deliberately call-through: no UI framework internals
// are imported here, only plain func(T) callbacks and teardown
// funcs — binding them to a specific framework's reactivity primitive
// is the caller's job.
package uihelpers

import (
	"context"

	"github.com/kramer-control/brain-client/brain"
	"github.com/kramer-control/brain-client/internal/device"
)

// Teardown releases whatever the setup call armed. Safe to call more
// than once.
type Teardown func()

// ObserveDevice resolves to dev's live object and calls onValue once
// immediately with it. Device identity never changes after
// enumeration, so there is nothing further to observe — the returned
// Teardown is a no-op, kept for interface symmetry with the other two
// adapters.
func ObserveDevice(ctx context.Context, client *brain.Client, deviceID string, onValue func(*brain.Device, error)) Teardown {
	dev, err := client.GetDevice(ctx, deviceID)
	onValue(dev, err)
	return func() {}
}

// ObserveState resolves to dev's current value for stateID and
// re-invokes onValue every time dev's STATE_CHANGED fires for that
// id. Setup/teardown is bound to the caller's lifetime: call the
// returned Teardown when the owning component unmounts.
func ObserveState(ctx context.Context, dev *brain.Device, stateID string, onValue func(brain.State, error)) Teardown {
	if st, err := dev.GetState(ctx, stateID); err == nil {
		onValue(st, nil)
	}

	// The device bus emits one STATE_CHANGED per update, for whichever
	// state changed; updates to sibling states on the same device are
	// skipped by comparing the payload's id with stateID's resolved id.
	unsub := dev.On(brain.EventStateChanged, func(payload any) {
		st, err := dev.GetState(ctx, stateID)
		if err != nil {
			return
		}
		if change, ok := payload.(device.StateChange); ok && change.ID != st.ID {
			return
		}
		onValue(st, nil)
	})
	return Teardown(unsub)
}

// ObserveConnectionStatus resolves to client's current connection
// status string and re-invokes onValue on every
// CONNECTION_STATUS_CHANGED.
func ObserveConnectionStatus(client *brain.Client, onValue func(string)) Teardown {
	onValue(client.ConnectionState())
	unsub := client.On(brain.EventConnectionStatusChanged, func(payload any) {
		if status, ok := payload.(string); ok {
			onValue(status)
		}
	})
	return Teardown(unsub)
}
