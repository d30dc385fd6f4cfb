package brain

// Event names (spec §6 "Event names (stable strings)").
const (
	EventWSConnected              = "WS_CONNECTED"
	EventWSClosed                 = "WS_CLOSED"
	EventBrainEvent                = "BRAIN_EVENT"
	EventExpressMode               = "EXPRESS_MODE"
	EventPinRequired                = "PIN_REQUIRED"
	EventAuthorized                 = "AUTHORIZED"
	EventStatusMessage              = "STATUS_MESSAGE"
	EventWSMessage                  = "WS_MESSAGE"
	EventColorMessage               = "COLOR_MESSAGE"
	EventHandsetMessage             = "HANDSET_MESSAGE"
	EventConnectionStatusChanged    = "CONNECTION_STATUS_CHANGED"

	// EventStateChanged fires per-device; subscribe on a Device, not
	// on the Client's bus.
	EventStateChanged = "STATE_CHANGED"
)
