// Package controller implements the connection state machine, the
// handshake sequencing that couples the REST bootstrap and the
// message-channel with application-level provisioning/express-mode/PIN
// handshakes, device enumeration, the reconnect+watchdog machinery, and
// inbound message dispatch (spec §4.6, the core of the library).
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kramer-control/brain-client/blog"
	"github.com/kramer-control/brain-client/internal/device"
	"github.com/kramer-control/brain-client/internal/driver"
	"github.com/kramer-control/brain-client/internal/eventbus"
	"github.com/kramer-control/brain-client/internal/future"
	"github.com/kramer-control/brain-client/internal/proto"
	"github.com/kramer-control/brain-client/internal/restclient"
	"github.com/kramer-control/brain-client/internal/wschannel"
)

// State is the connection-state enumeration (spec §3).
type State string

const (
	StateConnecting    State = "CONNECTING"
	StateFailure       State = "FAILURE"
	StateDisconnected  State = "DISCONNECTED"
	StateReconnecting  State = "RECONNECTING"
	StateAuthorizing   State = "AUTHORIZING"
	StateUnauthorized  State = "UNAUTHORIZED"
	StateActive        State = "ACTIVE"
	StateSynchronizing State = "SYNCHRONIZING"
)

// StatusString maps each State to its human-readable wire form
// (spec §6 "Connection-state strings").
func (s State) StatusString() string {
	switch s {
	case StateConnecting:
		return "Connecting ..."
	case StateFailure:
		return "Connection Failure"
	case StateDisconnected:
		return "Brain disconnected"
	case StateReconnecting:
		return "Reconnecting to brain ..."
	case StateAuthorizing:
		return "Authorizing ..."
	case StateUnauthorized:
		return "Unauthorized Connection"
	case StateActive:
		return "Connection Active"
	case StateSynchronizing:
		return "Synchronizing ..."
	default:
		return string(s)
	}
}

// PinSupplier is invoked only if the controller rejects the empty-PIN
// attempt (spec §6 Configuration: "pin: string | async supplier").
type PinSupplier func(ctx context.Context) (string, error)

// Config carries the per-client options (spec §6 Configuration).
type Config struct {
	ReconnectWaitTime   time.Duration
	HTTPRequestTimeout  time.Duration
	DisableAnalytics    bool
	RemoteAuthorization json.RawMessage
	PIN                 string
	PinSupplier         PinSupplier
	Logger              blog.Logger
	WatchdogDeadline    time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReconnectWaitTime <= 0 {
		c.ReconnectWaitTime = 1000 * time.Millisecond
	}
	if c.HTTPRequestTimeout <= 0 {
		c.HTTPRequestTimeout = 1000 * time.Millisecond
	}
	if c.WatchdogDeadline <= 0 {
		c.WatchdogDeadline = 15 * time.Second
	}
	if c.Logger == nil {
		c.Logger = blog.NoopLogger{}
	}
	return c
}

// connectionTimeout is the hard ceiling used only in the remote-auth
// path to force-disconnect if authorized_message never arrives
// (spec §5 "CONNECTION_TIMEOUT_MS, 5s").
const connectionTimeout = 5 * time.Second

// systemDeviceDriverID identifies the synthetic system device.
const systemDeviceDriverID = "system"

// secondStateID is the once-per-second tick used by the watchdog.
const secondStateID = "SECOND_STATE"

// Client is the core controller object (spec §C6).
type Client struct {
	endpoint string
	cfg      Config
	bus      *eventbus.Bus

	rest *restclient.Client

	mu           sync.Mutex
	state        State
	ws           *wschannel.Channel
	attemptID    string
	devices      map[string]*device.Device
	systemDevice *device.Device

	authRequired         bool
	isAuthenticated      bool
	isConnected          bool
	isReconnecting       bool
	manuallyDisconnected bool
	devicesEnumerated    bool
	syncInProgress       bool

	provisioned  *future.Future[bool]
	expressMode  *future.Future[bool]
	loginNeeded  *future.Future[bool]
	auth         *future.Future[string]
	enumerateFut *future.Future[struct{}]

	reconnectTrigger chan struct{}
	reconnectTimer   *time.Timer

	watchdogTimer *time.Timer
}

// New constructs a Client bound to endpoint in state CONNECTING
// (spec §3: "created in state CONNECTING").
func New(endpoint string, cfg Config, bus *eventbus.Bus) *Client {
	cfg = cfg.withDefaults()
	rest := restclient.New(endpoint)
	rest.Timeout = cfg.HTTPRequestTimeout
	rest.Retry = restclient.RetryPolicy{Enabled: true}

	c := &Client{
		endpoint:         endpoint,
		cfg:              cfg,
		bus:              bus,
		rest:             rest,
		state:            StateConnecting,
		devices:          make(map[string]*device.Device),
		reconnectTrigger: make(chan struct{}, 1),
	}
	go c.reconnectLoop()
	return c
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) transition(to State) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	c.mu.Unlock()
	c.announce(from, to)
}

// announce unconditionally emits CONNECTION_STATUS_CHANGED for a
// from→to move, even when from == to. Used at the start of a fresh
// connection attempt, where the state machine is already sitting in
// CONNECTING from the previous attempt but spec §8 S1 still expects an
// observable "Connecting ..." event for the new attempt.
func (c *Client) announce(from, to State) {
	c.cfg.Logger.Log(blog.Event{
		ConnectionID: c.attemptID,
		Category:     blog.CategoryState,
		Message:      to.StatusString(),
		StateChange:  &blog.StateChangeData{OldState: string(from), NewState: string(to)},
	})
	c.bus.Emit("CONNECTION_STATUS_CHANGED", to.StatusString())
}

func (c *Client) resetHandshakeFutures() {
	c.mu.Lock()
	c.provisioned = future.New[bool]()
	c.expressMode = future.New[bool]()
	c.loginNeeded = future.New[bool]()
	c.auth = future.New[string]()
	c.attemptID = uuid.NewString()
	c.mu.Unlock()
}

// Connect runs the REST bootstrap then opens the message channel
// (spec §4.6 CONNECTING transitions).
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.manuallyDisconnected = false
	prev := c.state
	c.state = StateConnecting
	c.mu.Unlock()
	c.resetHandshakeFutures()
	c.announce(prev, StateConnecting)

	if _, err := c.rest.Get(ctx, "general", nil); err != nil {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "controller-info bootstrap failed", Error: &blog.ErrorData{Message: err.Error()}})
		c.transition(StateFailure)
		return err
	}

	return c.openChannel(ctx)
}

func (c *Client) openChannel(ctx context.Context) error {
	ch := wschannel.New(c.endpoint)
	ch.OnOpen(c.handleChannelOpen)
	ch.OnMessage(c.handleMessage)
	ch.OnClose(c.handleChannelClose)
	ch.OnError(func(err error) {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "channel error", Error: &blog.ErrorData{Message: err.Error()}})
	})

	c.mu.Lock()
	c.ws = ch
	c.mu.Unlock()

	if err := ch.Open(ctx); err != nil {
		c.transition(StateFailure)
		return err
	}

	if c.cfg.RemoteAuthorization != nil {
		go c.runRemoteAuthTimeout()
	}
	return nil
}

func (c *Client) handleChannelOpen() {
	c.mu.Lock()
	c.isConnected = true
	c.isReconnecting = false
	c.mu.Unlock()
	c.bus.Emit("WS_CONNECTED", nil)

	if c.cfg.RemoteAuthorization != nil {
		c.sendRemoteAuth()
		return
	}
	c.queryProvisioned()
}

func (c *Client) handleChannelClose(err error) {
	c.mu.Lock()
	c.isConnected = false
	manual := c.manuallyDisconnected
	c.mu.Unlock()
	c.bus.Emit("WS_CLOSED", nil)

	if manual {
		return
	}

	c.mu.Lock()
	c.isReconnecting = true
	c.mu.Unlock()
	c.transition(StateReconnecting)
	c.triggerReconnect()
}

// ---- handshake wire sends ----------------------------------------------

func (c *Client) send(v any) {
	c.mu.Lock()
	ch := c.ws
	c.mu.Unlock()
	if ch == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.cfg.Logger.Log(blog.Event{ConnectionID: c.attemptID, Category: blog.CategoryMessage, Direction: blog.DirectionOut, Transport: blog.TransportChannel, Message: string(b)})
	ch.Send(string(b))
}

func (c *Client) queryProvisioned() {
	c.send(proto.SimpleQuery{Type: proto.TypeGetBrainStat})
}

func (c *Client) queryExpressMode() {
	c.send(proto.SimpleQuery{Type: proto.TypeGetExpressMode})
}

func (c *Client) sendRemoteAuth() {
	c.send(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: "remote_auth_message", Payload: c.cfg.RemoteAuthorization})
}

func (c *Client) runRemoteAuthTimeout() {
	c.mu.Lock()
	authFut := c.auth
	c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if _, err := authFut.Await(ctx); err != nil {
		c.Disconnect()
	}
}

// SubmitPin sends the PIN over the channel (spec §4.6 UNAUTHORIZED → AUTHORIZING).
func (c *Client) SubmitPin(pin string) {
	c.transition(StateAuthorizing)
	c.send(proto.NewPasscodeAuthMessage(pin))
}

func (c *Client) attemptDefaultPin() {
	c.transition(StateAuthorizing)
	c.send(proto.NewPasscodeAuthMessage(""))
}

// ---- inbound dispatch ---------------------------------------------------

func (c *Client) handleMessage(text string) {
	c.cfg.Logger.Log(blog.Event{ConnectionID: c.attemptID, Category: blog.CategoryMessage, Direction: blog.DirectionIn, Transport: blog.TransportChannel, Message: text})
	c.bus.Emit("WS_MESSAGE", text)

	env, err := proto.ParseEnvelope([]byte(text))
	if err != nil {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "malformed inbound message", Error: &blog.ErrorData{Message: err.Error()}})
		return
	}

	switch env.Type {
	case proto.TypeBrainStatusMessage:
		c.onBrainStatus(env.Raw)
	case proto.TypeBrainStatusColorMsg:
		c.bus.Emit("COLOR_MESSAGE", json.RawMessage(env.Raw))
	case proto.TypeExpressModeFlagMsg:
		c.onExpressMode(env.Raw)
	case proto.TypeUnauthorizedMessage:
		c.onUnauthorized()
	case proto.TypeAuthorizedMessage:
		c.onAuthorized(env.Raw)
	case proto.TypeStateChangeMessage:
		c.onStateChange(env.Raw)
	case proto.TypeSystemStateMessage:
		c.onSystemState(env.Raw)
	default:
		if len(env.Type) >= len(proto.HandsetMessagePrefix) && env.Type[:len(proto.HandsetMessagePrefix)] == proto.HandsetMessagePrefix {
			c.bus.Emit("HANDSET_MESSAGE", json.RawMessage(env.Raw))
		} else {
			c.bus.Emit("BRAIN_EVENT", json.RawMessage(env.Raw))
		}
	}
}

func (c *Client) onBrainStatus(raw json.RawMessage) {
	var msg proto.BrainStatusMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	c.bus.Emit("STATUS_MESSAGE", msg)

	c.mu.Lock()
	c.provisioned.Resolve(msg.Provisioned)
	remoteAuth := c.cfg.RemoteAuthorization != nil
	c.mu.Unlock()

	if !msg.Provisioned {
		// spec §9 open question: left as no-op pass-through, the
		// generic STATUS_MESSAGE emission above already covers it.
		return
	}
	if remoteAuth {
		// spec §9 open question: behaviour under remoteAuthorization
		// after brain_status_message is left as no-op pass-through.
		return
	}
	c.queryExpressMode()
}

func (c *Client) onExpressMode(raw json.RawMessage) {
	var msg proto.ExpressModeFlagMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	c.bus.Emit("EXPRESS_MODE", msg.Enabled)
	c.mu.Lock()
	c.expressMode.Resolve(msg.Enabled)
	c.mu.Unlock()

	if msg.Enabled {
		c.attemptDefaultPin()
	}
}

func (c *Client) onUnauthorized() {
	c.transition(StateUnauthorized)
	c.bus.Emit("PIN_REQUIRED", nil)
	c.mu.Lock()
	c.authRequired = true
	c.loginNeeded.Resolve(true)
	c.mu.Unlock()

	// spec §6: "pin (string | async supplier invoked only if the
	// controller rejects empty PIN)". Try the configured PIN
	// automatically; an application with neither configured is
	// expected to call SubmitPin itself in response to PIN_REQUIRED.
	switch {
	case c.cfg.PIN != "":
		c.SubmitPin(c.cfg.PIN)
	case c.cfg.PinSupplier != nil:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
			defer cancel()
			pin, err := c.cfg.PinSupplier(ctx)
			if err != nil {
				c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "PIN supplier failed", Error: &blog.ErrorData{Message: err.Error()}})
				return
			}
			c.SubmitPin(pin)
		}()
	}
}

func (c *Client) onAuthorized(raw json.RawMessage) {
	var msg proto.AuthorizedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	c.mu.Lock()
	c.isAuthenticated = true
	c.rest.Token = msg.Token
	c.auth.Resolve(msg.Token)
	c.mu.Unlock()

	c.transition(StateActive)
	c.bus.Emit("AUTHORIZED", msg)
	c.rearmWatchesAfterActive()
}

func (c *Client) onStateChange(raw json.RawMessage) {
	var msg proto.StateChangeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	c.mu.Lock()
	dev, ok := c.devices[msg.DeviceID]
	c.mu.Unlock()
	if !ok {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "state change for unknown device", DeviceID: msg.DeviceID})
		return
	}

	for _, entry := range msg.States {
		if _, applied := dev.ApplyStateChange(entry); !applied {
			c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "state change for unknown state " + entry.StateID, DeviceID: msg.DeviceID})
		}
		if dev.IsSystemDevice() && entry.StateID == secondStateID {
			c.resetWatchdog()
		}
	}
}

func (c *Client) onSystemState(raw json.RawMessage) {
	var msg proto.SystemStateMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.State {
	case proto.SystemStateBrainSync, proto.SystemStateSpaceSync, proto.SystemStateParseSpace,
		proto.SystemStateUpgrading, proto.SystemStateResourcesSync, proto.SystemStateActivating,
		proto.SystemStateInitializing:
		c.mu.Lock()
		c.syncInProgress = true
		c.mu.Unlock()
		c.transition(StateSynchronizing)
	case proto.SystemStateActiveOnline, proto.SystemStateActiveOffline:
		c.mu.Lock()
		hadEnumerated := c.devicesEnumerated
		c.syncInProgress = false
		c.mu.Unlock()
		c.transition(StateActive)
		if hadEnumerated {
			go c.reenumerateDevices(context.Background())
		}
	case proto.SystemStateInactive, proto.SystemStateError:
		c.transition(StateFailure)
	}
}

// ---- device enumeration -------------------------------------------------

type wireDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	DriverID      string `json:"driver_id"`
	DriverVersion string `json:"driver_version"`
}

// GetDevices returns the device catalog, enumerating lazily and
// single-flighted on first call (spec §4.6 "Device enumeration").
func (c *Client) GetDevices(ctx context.Context) (map[string]*device.Device, error) {
	if err := c.ensureEnumerated(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*device.Device, len(c.devices))
	for k, v := range c.devices {
		out[k] = v
	}
	return out, nil
}

// GetDevice looks up a single device by ID, enumerating if needed.
func (c *Client) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	if err := c.ensureEnumerated(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dev, ok := c.devices[id]
	if !ok {
		return nil, fmt.Errorf("controller: unknown device %q", id)
	}
	return dev, nil
}

// GetSystemDevice returns the synthetic system device.
func (c *Client) GetSystemDevice(ctx context.Context) (*device.Device, error) {
	if err := c.ensureEnumerated(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.systemDevice == nil {
		return nil, fmt.Errorf("controller: no system device enumerated")
	}
	return c.systemDevice, nil
}

func (c *Client) ensureEnumerated(ctx context.Context) error {
	c.mu.Lock()
	if c.devicesEnumerated {
		c.mu.Unlock()
		return nil
	}
	fut := c.enumerateFut
	if fut == nil {
		fut = future.New[struct{}]()
		c.enumerateFut = fut
		c.mu.Unlock()
		go c.runEnumeration(fut)
	} else {
		c.mu.Unlock()
	}
	_, err := fut.Await(ctx)
	return err
}

func (c *Client) runEnumeration(fut *future.Future[struct{}]) {
	err := c.enumerateDevices(context.Background())
	if err != nil {
		fut.Reject(err)
		return
	}
	c.mu.Lock()
	c.devicesEnumerated = true
	c.enumerateFut = nil
	c.mu.Unlock()
	fut.Resolve(struct{}{})
}

func (c *Client) reenumerateDevices(ctx context.Context) {
	if err := c.enumerateDevices(ctx); err != nil {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "device re-enumeration failed", Error: &blog.ErrorData{Message: err.Error()}})
	}
}

func (c *Client) enumerateDevices(ctx context.Context) error {
	raw, err := c.rest.Get(ctx, "devices", nil)
	if err != nil {
		return err
	}
	var wireDevices []wireDevice
	if err := json.Unmarshal(raw, &wireDevices); err != nil {
		return err
	}

	for _, wd := range wireDevices {
		c.mu.Lock()
		dev, exists := c.devices[wd.ID]
		c.mu.Unlock()
		if !exists {
			dev = device.New(wd.ID, wd.Name, wd.Description, wd.DriverID, wd.DriverVersion, c)
			c.mu.Lock()
			c.devices[wd.ID] = dev
			if wd.DriverID == systemDeviceDriverID {
				c.systemDevice = dev
			}
			c.mu.Unlock()
		}

		driverRaw, err := c.rest.Get(ctx, fmt.Sprintf("device-drivers/%s?version=%s", wd.DriverID, wd.DriverVersion), nil)
		if err != nil {
			dev.SetDriverError(err)
			continue
		}
		cats, err := driver.Normalize(driverRaw)
		if err != nil {
			dev.SetDriverError(err)
			continue
		}
		dev.ApplyDriver(cats, nil)
	}
	return nil
}

// ---- device.Sender implementation --------------------------------------

// SendMacro implements device.Sender by wrapping the action in a
// send_macro_message (spec §4.5).
func (c *Client) SendMacro(action proto.MacroAction) {
	c.send(proto.NewSendMacroMessage(action))
}

// WatchStates implements device.Sender (spec §4.5 subscription arbitration).
func (c *Client) WatchStates(deviceID string, watch bool, watchedStates []string) {
	if watchedStates == nil {
		watchedStates = []string{}
	}
	c.send(proto.WatchStatesMessage{
		Type:          proto.TypeWatchStates,
		DeviceID:      deviceID,
		Watch:         watch,
		WatchedStates: watchedStates,
	})
	if watch {
		c.armWatchdogIfAnySubscribed()
	}
}

func (c *Client) rearmWatchesAfterActive() {
	c.mu.Lock()
	devices := make([]*device.Device, 0, len(c.devices))
	for _, d := range c.devices {
		devices = append(devices, d)
	}
	c.mu.Unlock()
	for _, d := range devices {
		d.Rearm()
	}
	c.armWatchdogIfAnySubscribed()
}

// armWatchdogIfAnySubscribed arms the watchdog the first time any
// device has an active subscription (spec §4.6 "Watchdog": "enabled
// only once any device has actually subscribed"). Re-arming an
// already-armed watchdog is a no-op.
func (c *Client) armWatchdogIfAnySubscribed() {
	c.mu.Lock()
	alreadyArmed := c.watchdogTimer != nil
	anySubscribed := false
	for _, d := range c.devices {
		if d.IsWatching() {
			anySubscribed = true
			break
		}
	}
	c.mu.Unlock()
	if alreadyArmed || !anySubscribed {
		return
	}
	c.armWatchdog()
}

// ---- auxiliary RPCs (fire-and-forget, spec §4.6) ------------------------

func (c *Client) QueryStatus()      { c.send(proto.SimpleQuery{Type: "query_status_message"}) }
func (c *Client) QueryHandsets()    { c.send(proto.SimpleQuery{Type: "query_handsets_message"}) }
func (c *Client) GetHandsetLayout() { c.send(proto.SimpleQuery{Type: "get_handset_layout_message"}) }

// SetHandset pushes a handset layout update.
func (c *Client) SetHandset(payload json.RawMessage) {
	c.send(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: proto.TypeSetHandset, Payload: payload})
}

// SendAction fires a UI action message.
func (c *Client) SendAction(payload json.RawMessage) {
	c.send(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: proto.TypeUI, Payload: payload})
}

// ---- watchdog -----------------------------------------------------------

func (c *Client) armWatchdog() {
	c.mu.Lock()
	if c.watchdogTimer != nil {
		c.watchdogTimer.Stop()
	}
	c.watchdogTimer = time.AfterFunc(c.cfg.WatchdogDeadline, c.onWatchdogExpire)
	c.mu.Unlock()
}

func (c *Client) resetWatchdog() {
	c.mu.Lock()
	timer := c.watchdogTimer
	deadline := c.cfg.WatchdogDeadline
	c.mu.Unlock()
	if timer == nil {
		c.armWatchdog()
		return
	}
	timer.Reset(deadline)
}

func (c *Client) onWatchdogExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.rest.Post(ctx, "restart", nil); err != nil {
		c.cfg.Logger.Log(blog.Event{Category: blog.CategoryError, Message: "watchdog restart POST failed", Error: &blog.ErrorData{Message: err.Error()}})
	}
	c.armWatchdog()
}

// ---- reconnect + debounce -----------------------------------------------

func (c *Client) triggerReconnect() {
	select {
	case c.reconnectTrigger <- struct{}{}:
	default:
	}
}

func (c *Client) reconnectLoop() {
	for range c.reconnectTrigger {
		c.mu.Lock()
		if c.reconnectTimer != nil {
			c.reconnectTimer.Stop()
		}
		wait := c.cfg.ReconnectWaitTime
		c.reconnectTimer = time.AfterFunc(wait, func() {
			c.mu.Lock()
			manual := c.manuallyDisconnected
			c.mu.Unlock()
			if manual {
				return
			}
			c.resetHandshakeFutures()
			c.transition(StateConnecting)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = c.openChannel(ctx)
		})
		c.mu.Unlock()
	}
}

// Disconnect explicitly tears the connection down (spec §4.6 "any →
// DISCONNECTED"). Device map is cleared; reconnect is inhibited.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.manuallyDisconnected = true
	ch := c.ws
	c.devices = make(map[string]*device.Device)
	c.systemDevice = nil
	c.devicesEnumerated = false
	if c.watchdogTimer != nil {
		c.watchdogTimer.Stop()
		c.watchdogTimer = nil
	}
	c.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	c.transition(StateDisconnected)
}
