package interfaces

import (
	"time"

	"tick-relay/src/models"
)

// -----------------------------------------------------------------------------
// IStreamSink receives normalized events from an upstream stream.
// One implementation is bound to the owning session at construction time.
// -----------------------------------------------------------------------------

type IStreamSink interface {

	// OnConnected fires once the upstream subscription is live.
	OnConnected(instruments []uint32)

	// -----------------------------------------------------------------------------

	// OnTicks delivers one normalized tick batch.
	OnTicks(ticks []models.MTick)

	// -----------------------------------------------------------------------------

	// OnDisconnected reports the upstream connection closing; message may be empty.
	OnDisconnected(message string)

	// -----------------------------------------------------------------------------

	// OnStreamError reports a non-fatal upstream transport error.
	OnStreamError(message string)

	// -----------------------------------------------------------------------------

	// OnReconnecting reports a reconnect attempt made by the upstream client.
	OnReconnecting(retries int, interval time.Duration)

	// -----------------------------------------------------------------------------

	// OnNoReconnect reports that the upstream client gave up reconnecting.
	OnNoReconnect()

	// -----------------------------------------------------------------------------

	// OnOrderUpdate forwards an order-update push unmodified.
	OnOrderUpdate(order interface{})
}

// -----------------------------------------------------------------------------
// IStreamSource wraps one upstream streaming connection for exactly one session.
// -----------------------------------------------------------------------------

type IStreamSource interface {

	// Connect opens the upstream connection. Events flow to the bound sink
	// asynchronously from this point on.
	Connect() error

	// -----------------------------------------------------------------------------

	// Unsubscribe drops the given instrument ids from the live subscription.
	Unsubscribe(instruments []uint32) error

	// -----------------------------------------------------------------------------

	// Disconnect tears the connection down. Safe to call at any time, in any
	// state, repeatedly; failures are reported but never propagate further.
	Disconnect() error
}

// -----------------------------------------------------------------------------

// StreamFactory builds a stream source for one subscribe request. The relay
// server holds one; tests swap in a fake.
type StreamFactory func(cfg *models.MConfig, apiKey, accessToken string, instruments []uint32, mode string, sink IStreamSink) IStreamSource
