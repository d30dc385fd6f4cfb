// Package device implements the per-logical-device object (spec §4.5,
// §C5): normalised state/command catalog, wait-once state access,
// command/custom-state mutation, and subscription arbitration with the
// owning controller.
package device

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kramer-control/brain-client/internal/driver"
	"github.com/kramer-control/brain-client/internal/eventbus"
	"github.com/kramer-control/brain-client/internal/future"
	"github.com/kramer-control/brain-client/internal/proto"
)

// Sender is the narrow back-reference a Device holds on its owning
// controller (spec §9 "Back references" — lookup only, never
// ownership). internal/controller implements it.
type Sender interface {
	SendMacro(action proto.MacroAction)
	WatchStates(deviceID string, watch bool, watchedStates []string)
}

// StateChange is one applied inbound update, as delivered to listeners
// (spec §4.5: "{id, key, name, value, normalizedValue}").
type StateChange struct {
	ID              string
	Key             string
	Name            string
	Value           string
	NormalizedValue string
}

const systemDeviceDriverID = "system"

// Device is one logical endpoint on the controller.
type Device struct {
	mu sync.RWMutex

	id            string
	name          string
	description   string
	driverID      string
	driverVersion string

	controller Sender
	bus        *eventbus.Bus

	statesByID       map[string]*driver.State
	statesByName     map[string]*driver.State
	customStatesByID map[string]*driver.State
	commandsByID     map[string]*driver.Command
	commandsByName   map[string]*driver.Command

	driverError error

	watchRequested bool
	firstStateSeen bool
	firstStateWait *future.Future[struct{}]

	pendingWaits map[string]*pendingWait
}

type pendingWait struct {
	remaining map[string]bool
	values    map[string]string
	f         *future.Future[map[string]string]
}

// New constructs a Device from its identity fields; the catalog is
// populated separately via ApplyDriver once the driver descriptor has
// been fetched and normalised. Each Device owns its own event bus
// (spec §3/§4.5/§9 "Inheritance collapse" — one emitter instance per
// Device, not a bus shared across every device on the controller), so
// STATE_CHANGED listeners on one device never see another device's
// updates.
func New(id, name, description, driverID, driverVersion string, controller Sender) *Device {
	return &Device{
		id:               id,
		name:             name,
		description:      description,
		driverID:         driverID,
		driverVersion:    driverVersion,
		controller:       controller,
		bus:              eventbus.New(),
		statesByID:       make(map[string]*driver.State),
		statesByName:     make(map[string]*driver.State),
		customStatesByID: make(map[string]*driver.State),
		commandsByID:     make(map[string]*driver.Command),
		commandsByName:   make(map[string]*driver.Command),
		firstStateWait:   future.New[struct{}](),
		pendingWaits:     make(map[string]*pendingWait),
	}
}

// ID reports the device's stable identifier.
func (d *Device) ID() string { return d.id }

// Name reports the device's display name.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// IsSystemDevice reports whether this is the synthetic system device.
func (d *Device) IsSystemDevice() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.driverID == systemDeviceDriverID
}

// ApplyDriver installs a normalised driver catalog (spec §4.4 output),
// replacing any previously installed one. Custom states are those
// flagged in customStateIDs (only meaningful on the system device).
func (d *Device) ApplyDriver(categories map[string]*driver.Category, customStateIDs map[string]bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.driverError = nil
	d.statesByID = make(map[string]*driver.State)
	d.statesByName = make(map[string]*driver.State)
	d.customStatesByID = make(map[string]*driver.State)
	d.commandsByID = make(map[string]*driver.Command)
	d.commandsByName = make(map[string]*driver.Command)

	for _, cat := range categories {
		for id, st := range cat.States {
			if customStateIDs[id] {
				st.IsCustomState = true
				d.customStatesByID[id] = st
			}
			d.statesByID[id] = st
			d.statesByName[st.Name] = st
		}
		for _, cmd := range cat.Commands {
			d.commandsByID[cmd.ID] = cmd
			d.commandsByName[cmd.Name] = cmd
		}
	}
}

// SetDriverError records that the driver fetch for this device failed.
// The device remains usable for metadata only (spec §4.4).
func (d *Device) SetDriverError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.driverError = err
}

// DriverError reports the last driver-fetch error, if any.
func (d *Device) DriverError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.driverError
}

// ---- read APIs --------------------------------------------------------

// GetStates blocks until at least one inbound state change has been
// applied (on first call only), ensuring the subscription has been
// armed, then returns the full state catalog (spec §4.5).
func (d *Device) GetStates(ctx context.Context) (map[string]*driver.State, error) {
	if err := d.ensureWatching(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*driver.State, len(d.statesByID))
	for k, v := range d.statesByID {
		out[k] = v
	}
	return out, nil
}

// GetCustomStates returns only the custom-flagged states; empty for a
// non-system device.
func (d *Device) GetCustomStates(ctx context.Context) (map[string]*driver.State, error) {
	if !d.IsSystemDevice() {
		return map[string]*driver.State{}, nil
	}
	if err := d.ensureWatching(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*driver.State, len(d.customStatesByID))
	for k, v := range d.customStatesByID {
		out[k] = v
	}
	return out, nil
}

// GetState looks up a state by ID or name with the same wait-once
// semantics as GetStates.
func (d *Device) GetState(ctx context.Context, keyOrName string) (*driver.State, error) {
	if err := d.ensureWatching(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if st, ok := d.statesByID[keyOrName]; ok {
		return st, nil
	}
	if st, ok := d.statesByName[keyOrName]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("device: unknown state %q: %w", keyOrName, ErrInvalidState)
}

// StateIDs returns the known state IDs without waiting for a first
// inbound update, for diagnostics (e.g. brain.Client.Snapshot).
func (d *Device) StateIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.statesByID))
	for id := range d.statesByID {
		out = append(out, id)
	}
	return out
}

// GetCommands returns the full command catalog (synchronous, no wait).
func (d *Device) GetCommands() map[string]*driver.Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*driver.Command, len(d.commandsByID))
	for k, v := range d.commandsByID {
		out[k] = v
	}
	return out
}

// GetCommand looks up a command by ID or name.
func (d *Device) GetCommand(keyOrName string) (*driver.Command, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if cmd, ok := d.commandsByID[keyOrName]; ok {
		return cmd, nil
	}
	if cmd, ok := d.commandsByName[keyOrName]; ok {
		return cmd, nil
	}
	return nil, fmt.Errorf("device: unknown command %q: %w", keyOrName, ErrInvalidCommand)
}

// ---- mutation APIs ------------------------------------------------------

// SendCommand builds and sends a macro for the named command and
// blocks until every dynamic-parameter state it references has been
// updated by a subsequent inbound state change (spec §4.5).
func (d *Device) SendCommand(ctx context.Context, keyOrName string, params map[string]string) (map[string]string, error) {
	cmd, err := d.GetCommand(keyOrName)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]bool)
	for _, st := range cmd.States {
		expected[st.ID] = true
	}

	action := proto.MacroAction{
		CommandID:      cmd.ID,
		CategoryID:     cmd.Category,
		CapabilityID:   cmd.Capability,
		DeviceID:       d.id,
		DeviceDriverID: d.driverID,
		Parameters:     uppercasedStringParams(params),
	}

	f := d.registerWait(expected)
	d.controller.SendMacro(action)

	return f.Await(ctx)
}

// SetCustomState mutates a system-device custom state. Fails with
// ErrNotSystemDevice / ErrInvalidState per spec §4.5.
func (d *Device) SetCustomState(ctx context.Context, keyOrName, value string) (*driver.State, error) {
	if !d.IsSystemDevice() {
		return nil, ErrNotSystemDevice
	}

	d.mu.RLock()
	st, ok := d.customStatesByID[keyOrName]
	if !ok {
		st, ok = findByName(d.customStatesByID, keyOrName)
	}
	d.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidState
	}

	action := proto.MacroAction{
		DeviceID:       d.id,
		DeviceDriverID: d.driverID,
		Parameters:     map[string]string{"New_Value": value},
	}

	f := d.registerWait(map[string]bool{st.ID: true})
	d.controller.SendMacro(action)

	if _, err := f.Await(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	result := d.customStatesByID[st.ID]
	return result, nil
}

func findByName(states map[string]*driver.State, name string) (*driver.State, bool) {
	for _, st := range states {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

func uppercasedStringParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// ---- subscription arbitration -----------------------------------------

// ensureWatching sends the (idempotent) watch message on first use and
// blocks until the first inbound state change has been applied.
func (d *Device) ensureWatching(ctx context.Context) error {
	d.mu.Lock()
	if !d.watchRequested {
		d.watchRequested = true
		d.mu.Unlock()
		d.controller.WatchStates(d.id, true, nil)
	} else {
		d.mu.Unlock()
	}

	d.mu.RLock()
	seen := d.firstStateSeen
	wait := d.firstStateWait
	d.mu.RUnlock()
	if seen {
		return nil
	}
	_, err := wait.Await(ctx)
	return err
}

// Watch explicitly arms the subscription (e.g. from an attached
// STATE_CHANGED listener), suppressing a resend if already armed.
func (d *Device) Watch() {
	d.mu.Lock()
	if d.watchRequested {
		d.mu.Unlock()
		return
	}
	d.watchRequested = true
	d.mu.Unlock()
	d.controller.WatchStates(d.id, true, nil)
}

// Unwatch tears down the subscription when the last STATE_CHANGED
// listener is removed.
func (d *Device) Unwatch() {
	d.mu.Lock()
	if !d.watchRequested {
		d.mu.Unlock()
		return
	}
	d.watchRequested = false
	d.mu.Unlock()
	d.controller.WatchStates(d.id, false, nil)
}

// IsWatching reports whether a subscription is currently armed.
func (d *Device) IsWatching() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.watchRequested
}

// Rearm re-sends the watch message after a reconnect if a subscription
// was previously active (spec §4.6 reconnect behaviour).
func (d *Device) Rearm() {
	d.mu.RLock()
	active := d.watchRequested
	d.mu.RUnlock()
	if active {
		d.controller.WatchStates(d.id, true, nil)
	}
}

func (d *Device) registerWait(expected map[string]bool) *future.Future[map[string]string] {
	f := future.New[map[string]string]()
	if len(expected) == 0 {
		f.Resolve(map[string]string{})
		return f
	}

	pw := &pendingWait{
		remaining: expected,
		values:    make(map[string]string),
		f:         f,
	}

	id := fmt.Sprintf("%p", pw)
	d.mu.Lock()
	d.pendingWaits[id] = pw
	d.mu.Unlock()
	return f
}

// ApplyStateChange applies one inbound update (spec §4.5) and emits
// STATE_CHANGED. Unknown state IDs are logged by the caller and
// otherwise ignored here.
func (d *Device) ApplyStateChange(entry proto.StateChangeEntry) (StateChange, bool) {
	d.mu.Lock()
	st, ok := d.statesByID[entry.StateID]
	if !ok {
		d.mu.Unlock()
		return StateChange{}, false
	}

	st.Value = entry.StateValue
	if entry.StateNormalizedValue != "" {
		st.NormalizedValue = entry.StateNormalizedValue
	} else {
		st.Coerce()
	}

	if !d.firstStateSeen {
		d.firstStateSeen = true
		d.firstStateWait.Resolve(struct{}{})
	}

	for _, pw := range d.pendingWaits {
		if pw.remaining[entry.StateID] {
			delete(pw.remaining, entry.StateID)
			pw.values[entry.StateID] = st.NormalizedValue
			if len(pw.remaining) == 0 {
				pw.f.Resolve(cloneValues(pw.values))
			}
		}
	}
	for id, pw := range d.pendingWaits {
		if pw.f.Settled() {
			delete(d.pendingWaits, id)
		}
	}
	d.mu.Unlock()

	change := StateChange{
		ID:              st.ID,
		Key:             entry.StateKey,
		Name:            st.Name,
		Value:           st.Value,
		NormalizedValue: st.NormalizedValue,
	}
	d.bus.Emit("STATE_CHANGED", change)
	return change, true
}

func cloneValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Bus exposes the device's private event bus for STATE_CHANGED
// subscription by adapters (uihelpers) without reaching into internals.
func (d *Device) Bus() *eventbus.Bus { return d.bus }
