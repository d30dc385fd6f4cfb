package brain

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateClient_SameEndpointReturnsSameObject(t *testing.T) {
	resetRegistryForTest()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ep := EndpointDescriptor{Literal: strings.TrimPrefix(srv.URL, "http://")}
	a, err := GetOrCreateClient(ep)
	require.NoError(t, err)
	b, err := GetOrCreateClient(ep)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestGetOrCreateClient_DifferentEndpointsDifferentObjects(t *testing.T) {
	resetRegistryForTest()
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv2.Close()

	a, err := GetOrCreateClient(EndpointDescriptor{Literal: strings.TrimPrefix(srv1.URL, "http://")})
	require.NoError(t, err)
	b, err := GetOrCreateClient(EndpointDescriptor{Literal: strings.TrimPrefix(srv2.URL, "http://")})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestEndpointDescriptor_DefaultPort(t *testing.T) {
	ep := EndpointDescriptor{Literal: "10.0.0.5"}
	host, err := ep.resolve()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8000", host)
}

func TestEndpointDescriptor_Auto(t *testing.T) {
	ep := EndpointDescriptor{Param: "brain", Default: "192.168.1.1", QuerySource: "?brain=10.0.0.9"}
	host, err := ep.resolve()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:8000", host)
}

func TestEndpointDescriptor_AutoFallsBackToDefault(t *testing.T) {
	ep := EndpointDescriptor{Param: "brain", Default: "192.168.1.1", QuerySource: ""}
	host, err := ep.resolve()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1:8000", host)
}
