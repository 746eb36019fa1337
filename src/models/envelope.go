package models

// -----------------------------------------------------------------------------
// Client Command (inbound envelope)
// -----------------------------------------------------------------------------

// Command types accepted from downstream clients.
const (
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
	CommandPing        = "ping"
)

// Subscription depth modes. ModeFull is the default when the client omits one.
const (
	ModeLTP   = "ltp"
	ModeQuote = "quote"
	ModeFull  = "full"
)

// MClientCommand is the inbound message envelope on the downstream socket.
type MClientCommand struct {
	Type        string   `json:"type"`
	Secret      string   `json:"secret,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
	Token       string   `json:"token,omitempty"`
	Instruments []uint32 `json:"instruments,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// -----------------------------------------------------------------------------
// Server Events (outbound envelopes)
// -----------------------------------------------------------------------------

// Event types written to downstream clients.
const (
	EventPong         = "pong"
	EventConnected    = "connected"
	EventTicks        = "ticks"
	EventDisconnected = "disconnected"
	EventError        = "error"
	EventReconnecting = "reconnecting"
	EventNoReconnect  = "noreconnect"
	EventOrderUpdate  = "order_update"
)

type MPongEvent struct {
	Type string `json:"type"`
}

type MConnectedEvent struct {
	Type        string   `json:"type"`
	Instruments []uint32 `json:"instruments"`
}

type MTicksEvent struct {
	Type string  `json:"type"`
	Data []MTick `json:"data"`
}

type MDisconnectedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type MErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type MReconnectingEvent struct {
	Type     string  `json:"type"`
	Retries  int     `json:"retries"`
	Interval float64 `json:"interval"` // seconds
}

type MNoReconnectEvent struct {
	Type string `json:"type"`
}

type MOrderUpdateEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// -----------------------------------------------------------------------------
// Constructors (keep the type tag in one place)
// -----------------------------------------------------------------------------

func NewPongEvent() MPongEvent {
	return MPongEvent{Type: EventPong}
}

func NewConnectedEvent(instruments []uint32) MConnectedEvent {
	return MConnectedEvent{Type: EventConnected, Instruments: instruments}
}

func NewTicksEvent(ticks []MTick) MTicksEvent {
	return MTicksEvent{Type: EventTicks, Data: ticks}
}

func NewDisconnectedEvent(message string) MDisconnectedEvent {
	return MDisconnectedEvent{Type: EventDisconnected, Message: message}
}

func NewErrorEvent(message string) MErrorEvent {
	return MErrorEvent{Type: EventError, Error: message}
}

func NewReconnectingEvent(retries int, interval float64) MReconnectingEvent {
	return MReconnectingEvent{Type: EventReconnecting, Retries: retries, Interval: interval}
}

func NewNoReconnectEvent() MNoReconnectEvent {
	return MNoReconnectEvent{Type: EventNoReconnect}
}

func NewOrderUpdateEvent(data interface{}) MOrderUpdateEvent {
	return MOrderUpdateEvent{Type: EventOrderUpdate, Data: data}
}
