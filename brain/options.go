package brain

import (
	"context"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kramer-control/brain-client/blog"
	"github.com/kramer-control/brain-client/internal/controller"
)

// Options configures a Client (spec §6 "Configuration"). Construct
// with NewOptions and the With* functional options below, or with
// LoadOptionsYAML.
type Options struct {
	ReconnectWaitTime   time.Duration
	HTTPRequestTimeout  time.Duration
	DisableAnalytics    bool
	RemoteAuthorization json.RawMessage
	PIN                 string
	PinSupplier         func() (string, error)
	Logger              blog.Logger
}

// Option mutates an Options value (functional-options pattern).
type Option func(*Options)

// WithReconnectWaitTime sets the delay before a reconnect attempt
// (default 1000ms).
func WithReconnectWaitTime(d time.Duration) Option {
	return func(o *Options) { o.ReconnectWaitTime = d }
}

// WithHTTPRequestTimeout sets the per-REST-call deadline (default 1000ms).
func WithHTTPRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.HTTPRequestTimeout = d }
}

// WithDisableAnalytics disables usage/analytics reporting (an external
// collaborator this library never implements itself; the flag is
// plumbed through for callers that wire their own reporter).
func WithDisableAnalytics(disabled bool) Option {
	return func(o *Options) { o.DisableAnalytics = disabled }
}

// WithRemoteAuthorization replaces the PIN flow with a one-shot
// pre-auth payload (spec §6).
func WithRemoteAuthorization(payload json.RawMessage) Option {
	return func(o *Options) { o.RemoteAuthorization = payload }
}

// WithPIN sets a static PIN, tried only if the empty-PIN attempt is rejected.
func WithPIN(pin string) Option {
	return func(o *Options) { o.PIN = pin }
}

// WithPinSupplier sets an async PIN supplier, invoked only if the
// empty-PIN attempt is rejected (spec §6).
func WithPinSupplier(fn func() (string, error)) Option {
	return func(o *Options) { o.PinSupplier = fn }
}

// WithLogger installs a logging collaborator (spec §1 "external
// collaborators"). Defaults to blog.NoopLogger.
func WithLogger(logger blog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// NewOptions builds Options from functional options, applied over the
// documented defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		ReconnectWaitTime:  1000 * time.Millisecond,
		HTTPRequestTimeout: 1000 * time.Millisecond,
		Logger:             blog.NoopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LoadOptionsYAML parses a YAML document into Options, for callers
// that prefer a config file to functional options.
func LoadOptionsYAML(data []byte) (Options, error) {
	var raw struct {
		ReconnectWaitTimeMS  int    `yaml:"reconnectWaitTime"`
		HTTPRequestTimeoutMS int    `yaml:"httpRequestTimeout"`
		DisableAnalytics     bool   `yaml:"disableAnalytics"`
		PIN                  string `yaml:"pin"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Options{}, err
	}
	o := NewOptions()
	if raw.ReconnectWaitTimeMS > 0 {
		o.ReconnectWaitTime = time.Duration(raw.ReconnectWaitTimeMS) * time.Millisecond
	}
	if raw.HTTPRequestTimeoutMS > 0 {
		o.HTTPRequestTimeout = time.Duration(raw.HTTPRequestTimeoutMS) * time.Millisecond
	}
	o.DisableAnalytics = raw.DisableAnalytics
	o.PIN = raw.PIN
	return o, nil
}

func (o Options) toControllerConfig() controller.Config {
	return controller.Config{
		ReconnectWaitTime:   o.ReconnectWaitTime,
		HTTPRequestTimeout:  o.HTTPRequestTimeout,
		DisableAnalytics:    o.DisableAnalytics,
		RemoteAuthorization: o.RemoteAuthorization,
		PIN:                 o.PIN,
		Logger:              o.Logger,
		PinSupplier:         adaptPinSupplier(o.PinSupplier),
	}
}

func adaptPinSupplier(fn func() (string, error)) controller.PinSupplier {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) { return fn() }
}
