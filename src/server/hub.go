package server

import (
	"encoding/json"
	"net/http"
	"time"

	"tick-relay/src/helpers"
	"tick-relay/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebSocket Upgrader
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// handleClientMessage parses one inbound envelope and dispatches it. Malformed
// JSON is dropped without a reply; the connection stays open.
func (s *RelayServer) handleClientMessage(sess *Session, message []byte) {
	// A denied session processes nothing more; it only waits for its close
	// frame to drain. Pipelined messages behind a failed first message land
	// here and must not dispatch even if they carry the right secret.
	if sess.isDenied() {
		return
	}

	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Debug("Dropping malformed message from %s: %v", sess.remoteAddr, err)
		return
	}

	// Auth gate: checked on the first message only. An empty configured secret
	// means open access. On success the same message continues to dispatch.
	if !sess.isAuthenticated() {
		if s.Config.Secret != "" && cmd.Secret != s.Config.Secret {
			s.Logger.Warning("Authentication failed for %s", sess.remoteAddr)
			sess.markDenied()
			sess.enqueue(models.NewErrorEvent("invalid secret"))
			sess.enqueue(closeFrame{code: websocket.ClosePolicyViolation, text: "invalid secret"})
			return
		}
		sess.markAuthenticated()
	}

	switch cmd.Type {
	case models.CommandPing:
		sess.enqueue(models.NewPongEvent())

	case models.CommandSubscribe:
		s.handleSubscribe(sess, &cmd)

	case models.CommandUnsubscribe:
		sess.unsubscribeInstruments(cmd.Instruments)

	default:
		s.Logger.Debug("Ignoring unknown command type %q from %s", cmd.Type, sess.remoteAddr)
	}
}

// -----------------------------------------------------------------------------

func (s *RelayServer) handleSubscribe(sess *Session, cmd *models.MClientCommand) {
	if cmd.APIKey == "" || cmd.Token == "" || len(cmd.Instruments) == 0 {
		err := helpers.NewValidationError("subscribe requires api_key, token and instruments")
		sess.enqueue(models.NewErrorEvent(err.Error()))
		return
	}

	mode := cmd.Mode
	if mode == "" {
		mode = models.ModeFull
	}

	sess.replaceStream(cmd.APIKey, cmd.Token, cmd.Instruments, mode)
}

// -----------------------------------------------------------------------------
// Session Sink
// -----------------------------------------------------------------------------

// sessionSink binds one stream's events to its owning session. The generation
// tag lets the session drop events from a stream it has already discarded.
type sessionSink struct {
	session    *Session
	generation uint64
}

func (k *sessionSink) OnConnected(instruments []uint32) {
	k.session.deliver(k.generation, models.NewConnectedEvent(instruments))
}

func (k *sessionSink) OnTicks(ticks []models.MTick) {
	k.session.deliver(k.generation, models.NewTicksEvent(ticks))
}

func (k *sessionSink) OnDisconnected(message string) {
	k.session.deliver(k.generation, models.NewDisconnectedEvent(message))
}

func (k *sessionSink) OnStreamError(message string) {
	k.session.deliver(k.generation, models.NewErrorEvent(message))
}

func (k *sessionSink) OnReconnecting(retries int, interval time.Duration) {
	k.session.deliver(k.generation, models.NewReconnectingEvent(retries, interval.Seconds()))
}

func (k *sessionSink) OnNoReconnect() {
	k.session.deliver(k.generation, models.NewNoReconnectEvent())
}

func (k *sessionSink) OnOrderUpdate(order interface{}) {
	k.session.deliver(k.generation, models.NewOrderUpdateEvent(order))
}
