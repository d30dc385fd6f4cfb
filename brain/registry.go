// Package brain is the public façade: a process-wide client registry
// (spec §C7), the Client/Device object model (spec §C5/§C6), and the
// enumerations/errors of spec §C10.
package brain

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
)

const defaultPort = 8000

var (
	registryMu sync.Mutex
	registry   = map[string]*Client{}
)

// EndpointDescriptor names the controller address to connect to,
// either literally or as an "auto" lookup against a query string
// (spec §4.7: "An endpoint descriptor may be literal or an 'auto'
// descriptor with param ... and default").
type EndpointDescriptor struct {
	// Literal is used verbatim (host or host:port) when set.
	Literal string

	// Param and Default implement the "auto" form: the endpoint is
	// read from the named query-string parameter of QuerySource,
	// falling back to Default if absent.
	Param       string
	Default     string
	QuerySource string // a raw "?..." query string or URL to resolve Param against
}

func (d EndpointDescriptor) resolve() (string, error) {
	host := d.Literal
	if host == "" {
		if d.Param != "" {
			values, err := url.ParseQuery(stripLeadingQuestionMark(d.QuerySource))
			if err == nil {
				if v := values.Get(d.Param); v != "" {
					host = v
				}
			}
		}
		if host == "" {
			host = d.Default
		}
	}
	if host == "" {
		return "", fmt.Errorf("brain: empty endpoint descriptor")
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(defaultPort))
	}
	return host, nil
}

func stripLeadingQuestionMark(s string) string {
	if len(s) > 0 && s[0] == '?' {
		return s[1:]
	}
	return s
}

// GetOrCreateClient returns the cached Client for endpoint if one
// exists; otherwise it constructs one and schedules its connect on the
// next tick so the caller can attach listeners first (spec §4.7). The
// registry is never auto-evicted; callers that want to discard a
// client call Disconnect and drop their own reference.
func GetOrCreateClient(endpoint EndpointDescriptor, opts ...Option) (*Client, error) {
	host, err := endpoint.resolve()
	if err != nil {
		return nil, err
	}

	registryMu.Lock()
	if existing, ok := registry[host]; ok {
		registryMu.Unlock()
		return existing, nil
	}
	c := newClient(host, NewOptions(opts...))
	registry[host] = c
	registryMu.Unlock()

	go c.connectAsync(context.Background())
	return c, nil
}

// resetRegistryForTest clears the process-wide registry; test-only.
func resetRegistryForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Client{}
}
