package uihelpers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kramer-control/brain-client/brain"
	"github.com/kramer-control/brain-client/uihelpers"
)

func TestObserveConnectionStatus_FiresImmediatelyAndOnChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	endpoint := brain.EndpointDescriptor{Literal: strings.TrimPrefix(srv.URL, "http://")}
	client, err := brain.GetOrCreateClient(endpoint)
	require.NoError(t, err)

	statuses := make(chan string, 8)
	teardown := uihelpers.ObserveConnectionStatus(client, func(status string) { statuses <- status })
	defer teardown()

	select {
	case s := <-statuses:
		require.NotEmpty(t, s)
	case <-time.After(3 * time.Second):
		t.Fatal("never received initial status")
	}
}

func TestObserveDevice_ResolvesImmediately(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/general", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) })
	mux.HandleFunc("/api/v1/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"dev-1","name":"Amp","driver_id":"amp","driver_version":"1"}]`))
	})
	mux.HandleFunc("/api/v1/device-drivers/amp", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	endpoint := brain.EndpointDescriptor{Literal: strings.TrimPrefix(srv.URL, "http://")}
	client, err := brain.GetOrCreateClient(endpoint)
	require.NoError(t, err)

	resolved := make(chan *brain.Device, 1)
	uihelpers.ObserveDevice(context.Background(), client, "dev-1", func(d *brain.Device, err error) {
		resolved <- d
	})

	select {
	case d := <-resolved:
		_ = d
	case <-time.After(3 * time.Second):
		t.Fatal("ObserveDevice never resolved")
	}
}
