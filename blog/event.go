package blog

import "time"

// Event is one loggable occurrence anywhere in the client: a
// connection-state transition, an inbound/outbound transport message,
// or an error surfaced by a transport.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID correlates the connection-state transition and
	// message-channel traffic events of one connectToController attempt
	// (see SPEC_FULL.md "Supplemented features"). Error events leave it
	// empty.
	ConnectionID string `cbor:"2,keyasint"`

	// Endpoint is the controller address this event concerns.
	Endpoint string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Direction indicates message flow, when applicable.
	Direction Direction `cbor:"5,keyasint,omitempty"`

	// Transport indicates which transport the event concerns.
	Transport Transport `cbor:"6,keyasint,omitempty"`

	// Message is a short human-readable summary.
	Message string `cbor:"7,keyasint,omitempty"`

	// StateChange is set for Category == CategoryState.
	StateChange *StateChangeData `cbor:"8,keyasint,omitempty"`

	// Error is set for Category == CategoryError.
	Error *ErrorData `cbor:"9,keyasint,omitempty"`

	// DeviceID is set when the event concerns a specific device.
	DeviceID string `cbor:"10,keyasint,omitempty"`
}

// Category classifies an Event.
type Category uint8

const (
	CategoryMessage Category = iota
	CategoryState
	CategoryError
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Direction indicates message flow.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionIn
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return ""
	}
}

// Transport indicates which transport an Event concerns.
type Transport uint8

const (
	TransportNone Transport = iota
	TransportREST
	TransportChannel
)

func (t Transport) String() string {
	switch t {
	case TransportREST:
		return "REST"
	case TransportChannel:
		return "CHANNEL"
	default:
		return ""
	}
}

// StateChangeData describes a connection-state transition.
type StateChangeData struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
}

// ErrorData describes an error surfaced by a transport or handshake step.
type ErrorData struct {
	Message string `cbor:"1,keyasint"`
	Code    string `cbor:"2,keyasint,omitempty"`
}
