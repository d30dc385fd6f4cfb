package brain

import "sort"

// DeviceSnapshot is a point-in-time, read-only summary of one device's
// subscription/catalog state, for diagnostics and tests.
type DeviceSnapshot struct {
	ID         string
	Name       string
	IsSystem   bool
	IsWatching bool
	StateIDs   []string
	CommandIDs []string
}

// Snapshot is a point-in-time, read-only dump of a Client's connection
// state and device catalog (SPEC_FULL.md "Supplemented features":
// not a wire operation, purely additive and side-effect-free).
type Snapshot struct {
	Endpoint        string
	ConnectionState string
	Devices         []DeviceSnapshot
}

// Snapshot captures the Client's current connection state and device
// catalog without mutating anything (no enumeration is triggered; a
// Client that has never enumerated reports an empty Devices list).
func (c *Client) Snapshot() Snapshot {
	snap := Snapshot{
		Endpoint:        c.endpoint,
		ConnectionState: c.ConnectionState(),
	}

	c.facadesMu.Lock()
	facades := make([]*Device, 0, len(c.facades))
	for _, f := range c.facades {
		facades = append(facades, f)
	}
	c.facadesMu.Unlock()

	for _, f := range facades {
		ids := f.core.StateIDs()
		cmds := f.GetCommands()
		sort.Strings(ids)
		sort.Strings(cmds)
		snap.Devices = append(snap.Devices, DeviceSnapshot{
			ID:         f.ID(),
			Name:       f.Name(),
			IsSystem:   f.IsSystemDevice(),
			IsWatching: f.core.IsWatching(),
			StateIDs:   ids,
			CommandIDs: cmds,
		})
	}
	sort.Slice(snap.Devices, func(i, j int) bool { return snap.Devices[i].ID < snap.Devices[j].ID })
	return snap
}
