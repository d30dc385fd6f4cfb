package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramer-control/brain-client/internal/driver"
	"github.com/kramer-control/brain-client/internal/proto"
)

type fakeSender struct {
	macros  []proto.MacroAction
	watches []watchCall
}

type watchCall struct {
	deviceID string
	watch    bool
}

func (f *fakeSender) SendMacro(action proto.MacroAction) {
	f.macros = append(f.macros, action)
}

func (f *fakeSender) WatchStates(deviceID string, watch bool, watchedStates []string) {
	f.watches = append(f.watches, watchCall{deviceID, watch})
}

func newTestDevice(t *testing.T, driverID string) (*Device, *fakeSender) {
	return newNamedTestDevice(t, "dev-1", driverID)
}

func newNamedTestDevice(t *testing.T, id, driverID string) (*Device, *fakeSender) {
	sender := &fakeSender{}
	d := New(id, "Living Room", "", driverID, "1", sender)

	cats, err := driver.Normalize([]byte(`{
	  "categories": [{
	    "name": "Power", "reference_id": "CAT_POWER",
	    "states": [{"reference_id": "SYSTEM_STATE", "name": "System State", "type": "string"}],
	    "capabilities": [{
	      "name": "OnOff",
	      "commands": [{
	        "reference_id": "SET_SYSTEM_USE", "name": "Set System Use",
	        "codes": [{
	          "state_references": [{"name": "SYSTEM_STATE", "reference_id": "SYSTEM_STATE"}],
	          "parameters": [{"name": "FORCE", "type": "boolean", "constraints": []}]
	        }]
	      }]
	    }]
	  }]
	}`))
	require.NoError(t, err)
	custom := map[string]bool{}
	if driverID == "system" {
		custom["SYSTEM_STATE"] = true
	}
	d.ApplyDriver(cats, custom)
	return d, sender
}

func TestDevice_GetStatesWaitsForFirstUpdate(t *testing.T) {
	d, sender := newTestDevice(t, "amp")

	done := make(chan map[string]*driver.State, 1)
	go func() {
		states, err := d.GetStates(context.Background())
		require.NoError(t, err)
		done <- states
	}()

	time.Sleep(20 * time.Millisecond)
	_, ok := d.ApplyStateChange(proto.StateChangeEntry{StateID: "SYSTEM_STATE", StateValue: "ON"})
	require.True(t, ok)

	select {
	case states := <-done:
		assert.Equal(t, "ON", states["SYSTEM_STATE"].Value)
	case <-time.After(2 * time.Second):
		t.Fatal("GetStates never returned")
	}

	require.Len(t, sender.watches, 1)
	assert.True(t, sender.watches[0].watch)
}

func TestDevice_WatchIsIdempotent(t *testing.T) {
	d, sender := newTestDevice(t, "amp")
	d.Watch()
	d.Watch()
	d.Watch()
	assert.Len(t, sender.watches, 1)
}

func TestDevice_UnwatchAfterWatch(t *testing.T) {
	d, sender := newTestDevice(t, "amp")
	d.Watch()
	d.Unwatch()
	require.Len(t, sender.watches, 2)
	assert.False(t, sender.watches[1].watch)
}

func TestDevice_SendCommandResolvesAfterStateUpdate(t *testing.T) {
	d, sender := newTestDevice(t, "amp")

	result := make(chan map[string]string, 1)
	go func() {
		r, err := d.SendCommand(context.Background(), "SET_SYSTEM_USE", map[string]string{"force": "true"})
		require.NoError(t, err)
		result <- r
	}()

	time.Sleep(20 * time.Millisecond)
	_, ok := d.ApplyStateChange(proto.StateChangeEntry{StateID: "SYSTEM_STATE", StateValue: "ON", StateNormalizedValue: "ON"})
	require.True(t, ok)

	select {
	case r := <-result:
		assert.Equal(t, map[string]string{"SYSTEM_STATE": "ON"}, r)
	case <-time.After(2 * time.Second):
		t.Fatal("SendCommand never resolved")
	}

	require.Len(t, sender.macros, 1)
	assert.Equal(t, "true", sender.macros[0].Parameters["FORCE"])
}

func TestDevice_SetCustomStateOnNonSystemDeviceFails(t *testing.T) {
	d, _ := newTestDevice(t, "amp")
	_, err := d.SetCustomState(context.Background(), "SYSTEM_STATE", "42")
	assert.ErrorIs(t, err, ErrNotSystemDevice)
}

func TestDevice_SetCustomStateOnSystemDevice(t *testing.T) {
	d, sender := newTestDevice(t, "system")

	result := make(chan *driver.State, 1)
	go func() {
		st, err := d.SetCustomState(context.Background(), "SYSTEM_STATE", "42")
		require.NoError(t, err)
		result <- st
	}()

	time.Sleep(20 * time.Millisecond)
	d.ApplyStateChange(proto.StateChangeEntry{StateID: "SYSTEM_STATE", StateValue: "42", StateNormalizedValue: "42"})

	select {
	case st := <-result:
		assert.Equal(t, "42", st.NormalizedValue)
	case <-time.After(2 * time.Second):
		t.Fatal("SetCustomState never resolved")
	}
	require.Len(t, sender.macros, 1)
	assert.Equal(t, "42", sender.macros[0].Parameters["New_Value"])
}

func TestDevice_StateChangeEmitsEvent(t *testing.T) {
	d, _ := newTestDevice(t, "amp")
	var got StateChange
	d.Bus().On("STATE_CHANGED", func(payload any) { got = payload.(StateChange) })

	d.ApplyStateChange(proto.StateChangeEntry{StateID: "SYSTEM_STATE", StateKey: "system_state", StateValue: "OFF", StateNormalizedValue: "OFF"})

	assert.Equal(t, "SYSTEM_STATE", got.ID)
	assert.Equal(t, "OFF", got.Value)
}

func TestDevice_UnknownStateIDIsIgnored(t *testing.T) {
	d, _ := newTestDevice(t, "amp")
	_, ok := d.ApplyStateChange(proto.StateChangeEntry{StateID: "NOPE", StateValue: "x"})
	assert.False(t, ok)
}

func TestDevice_BusIsPrivatePerDevice(t *testing.T) {
	a, _ := newNamedTestDevice(t, "dev-a", "amp")
	b, _ := newNamedTestDevice(t, "dev-b", "amp")
	assert.NotSame(t, a.Bus(), b.Bus())

	var aFired, bFired bool
	a.Bus().On("STATE_CHANGED", func(payload any) { aFired = true })
	b.Bus().On("STATE_CHANGED", func(payload any) { bFired = true })

	b.ApplyStateChange(proto.StateChangeEntry{StateID: "SYSTEM_STATE", StateValue: "ON"})

	assert.True(t, bFired, "device b's own listener should fire for device b's state change")
	assert.False(t, aFired, "device a's listener must not fire for device b's state change")
}
