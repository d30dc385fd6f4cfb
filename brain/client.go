package brain

import (
	"context"
	"sync"

	"github.com/kramer-control/brain-client/internal/controller"
	"github.com/kramer-control/brain-client/internal/eventbus"
)

// Client is the public handle on one controller connection (spec §C6
// façade). Obtain one via GetOrCreateClient.
type Client struct {
	endpoint string
	ctrl     *controller.Client
	bus      *eventbus.Bus

	facadesMu sync.Mutex
	facades   map[string]*Device
}

func newClient(endpoint string, opts Options) *Client {
	bus := eventbus.New()
	ctrl := controller.New(endpoint, opts.toControllerConfig(), bus)
	return &Client{
		endpoint: endpoint,
		ctrl:     ctrl,
		bus:      bus,
		facades:  make(map[string]*Device),
	}
}

func (c *Client) connectAsync(ctx context.Context) {
	_ = c.ctrl.Connect(ctx)
}

// Endpoint reports the resolved controller address this Client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// ConnectionState reports the current connection-state string
// (spec §6 "Connection-state strings").
func (c *Client) ConnectionState() string {
	return c.ctrl.State().StatusString()
}

// On subscribes fn to a named client-level event (spec §6 "Event names").
func (c *Client) On(event string, fn func(payload any)) func() {
	return c.bus.On(event, eventbus.Listener(fn))
}

// SubmitPin submits a PIN in response to PIN_REQUIRED (spec §4.6).
func (c *Client) SubmitPin(pin string) { c.ctrl.SubmitPin(pin) }

// Disconnect explicitly tears the connection down (spec §4.6). The
// registry entry is left in place per spec §4.7; discard the returned
// reference if you don't intend to reconnect.
func (c *Client) Disconnect() {
	c.ctrl.Disconnect()
	c.facadesMu.Lock()
	c.facades = make(map[string]*Device)
	c.facadesMu.Unlock()
}

// Connect re-establishes the connection after an explicit Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	return c.ctrl.Connect(ctx)
}

// GetDevices returns every enumerated device (spec §4.6 "Device enumeration").
func (c *Client) GetDevices(ctx context.Context) (map[string]*Device, error) {
	devs, err := c.ctrl.GetDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Device, len(devs))
	for id, d := range devs {
		out[id] = c.facadeFor(d)
	}
	return out, nil
}

// GetDevice looks up one device by ID, enumerating if needed.
func (c *Client) GetDevice(ctx context.Context, id string) (*Device, error) {
	d, err := c.ctrl.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.facadeFor(d), nil
}

// GetSystemDevice returns the synthetic system device.
func (c *Client) GetSystemDevice(ctx context.Context) (*Device, error) {
	d, err := c.ctrl.GetSystemDevice(ctx)
	if err != nil {
		return nil, err
	}
	return c.facadeFor(d), nil
}

// facadeFor returns the cached *Device wrapper for d, preserving
// object identity per device id across re-enumeration (spec §8 S6).
func (c *Client) facadeFor(d *deviceCore) *Device {
	c.facadesMu.Lock()
	defer c.facadesMu.Unlock()
	if existing, ok := c.facades[d.ID()]; ok {
		return existing
	}
	facade := &Device{core: d}
	c.facades[d.ID()] = facade
	return facade
}
