package server

import (
	"sync"
	"time"

	"tick-relay/src/interfaces"
	"tick-relay/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Session Structure
// -----------------------------------------------------------------------------

// closeFrame instructs the write pump to send a close frame and drop the
// connection. Used for forced closes (auth failure).
type closeFrame struct {
	code int
	text string
}

// Session is the per-downstream-connection state: the authentication flag and
// at most one live upstream stream. The session exclusively owns its stream's
// teardown. Events are delivered through a buffered queue drained by a single
// write pump, which preserves per-session ordering.
type Session struct {
	server *RelayServer
	conn   *websocket.Conn
	send   chan interface{}

	mu            sync.Mutex
	closed        bool
	authenticated bool
	denied        bool
	stream        interfaces.IStreamSource
	generation    uint64
	instruments   []uint32
	mode          string

	remoteAddr string
	joinedAt   time.Time
}

// -----------------------------------------------------------------------------

func newSession(server *RelayServer, conn *websocket.Conn) *Session {
	return &Session{
		server: server,
		conn:   conn,
		// Buffered channel to prevent blocking upstream callbacks
		send:       make(chan interface{}, server.Config.Server.SendBufferSize),
		remoteAddr: conn.RemoteAddr().String(),
		joinedAt:   time.Now(),
	}
}

// -----------------------------------------------------------------------------
// State Accessors
// -----------------------------------------------------------------------------

func (sess *Session) isAuthenticated() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.authenticated
}

// -----------------------------------------------------------------------------

// markAuthenticated flips the flag. It flips at most once per session; the
// dispatcher only calls it on the first inbound message.
func (sess *Session) markAuthenticated() {
	sess.mu.Lock()
	sess.authenticated = true
	sess.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (sess *Session) isDenied() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.denied
}

// -----------------------------------------------------------------------------

// markDenied poisons the session after an authentication failure. Messages the
// client pipelined behind the failing one must never dispatch, even though the
// close frame still has to drain through the outbound queue.
func (sess *Session) markDenied() {
	sess.mu.Lock()
	sess.denied = true
	sess.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (sess *Session) debugInfo() gin.H {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return gin.H{
		"remote_addr":   sess.remoteAddr,
		"authenticated": sess.authenticated,
		"streaming":     sess.stream != nil,
		"instruments":   append([]uint32(nil), sess.instruments...),
		"mode":          sess.mode,
		"uptime":        time.Since(sess.joinedAt).Round(time.Second).String(),
	}
}

// -----------------------------------------------------------------------------
// Outbound Queue
// -----------------------------------------------------------------------------

// enqueue queues an event for the write pump. Events for a closed session are
// silently skipped: an upstream callback may fire after the client has gone.
func (sess *Session) enqueue(event interface{}) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.enqueueLocked(event)
}

// -----------------------------------------------------------------------------

// deliver is enqueue gated by a stream generation: events from a superseded
// stream are dropped before they reach the socket.
func (sess *Session) deliver(generation uint64, event interface{}) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if generation != sess.generation {
		return
	}
	sess.enqueueLocked(event)
}

// -----------------------------------------------------------------------------

func (sess *Session) enqueueLocked(event interface{}) {
	if sess.closed {
		return
	}
	select {
	case sess.send <- event:
	default:
		// Client too slow; dropping beats blocking an upstream callback.
		sess.server.Logger.Warning("Send buffer full for %s, dropping event", sess.remoteAddr)
	}
}

// -----------------------------------------------------------------------------
// Stream Ownership
// -----------------------------------------------------------------------------

// replaceStream tears down any existing stream and installs a freshly built
// one at the next generation. Teardown failures are swallowed; the old stream
// is always gone from the session before the new one is created.
func (sess *Session) replaceStream(apiKey, accessToken string, instruments []uint32, mode string) {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	old := sess.stream
	sess.stream = nil
	sess.generation++
	generation := sess.generation
	sess.instruments = append([]uint32(nil), instruments...)
	sess.mode = mode
	sess.mu.Unlock()

	if old != nil {
		sess.server.errors.Handle(old.Disconnect(), "stream teardown on resubscribe")
	}

	sink := &sessionSink{session: sess, generation: generation}
	stream := sess.server.factory(sess.server.Config, apiKey, accessToken, instruments, mode, sink)

	sess.mu.Lock()
	if sess.closed || generation != sess.generation {
		// Session died or another subscribe won the race while we were building.
		sess.mu.Unlock()
		sess.server.errors.Handle(stream.Disconnect(), "stream teardown on stale subscribe")
		return
	}
	sess.stream = stream
	sess.mu.Unlock()

	if err := stream.Connect(); err != nil {
		sess.server.Logger.Warning("Upstream connect failed for %s: %v", sess.remoteAddr, err)
		sess.deliver(generation, models.NewErrorEvent(err.Error()))
	}
}

// -----------------------------------------------------------------------------

// unsubscribeInstruments forwards an unsubscribe to the live stream, if any.
// No stream or an empty id list is a no-op.
func (sess *Session) unsubscribeInstruments(instruments []uint32) {
	if len(instruments) == 0 {
		return
	}

	sess.mu.Lock()
	stream := sess.stream
	if stream != nil {
		drop := make(map[uint32]struct{}, len(instruments))
		for _, id := range instruments {
			drop[id] = struct{}{}
		}
		remaining := make([]uint32, 0, len(sess.instruments))
		for _, id := range sess.instruments {
			if _, gone := drop[id]; !gone {
				remaining = append(remaining, id)
			}
		}
		sess.instruments = remaining
	}
	sess.mu.Unlock()

	if stream == nil {
		return
	}
	sess.server.errors.Handle(stream.Unsubscribe(instruments), "unsubscribe")
}

// -----------------------------------------------------------------------------

// close tears the session down: best-effort upstream disconnect, then the
// outbound queue, then the socket. Idempotent.
func (sess *Session) close() {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.closed = true
	old := sess.stream
	sess.stream = nil
	close(sess.send)
	sess.mu.Unlock()

	if old != nil {
		sess.server.errors.Handle(old.Disconnect(), "stream teardown on session close")
	}
	sess.conn.Close()
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Acts as the watchdog for the connection
// -----------------------------------------------------------------------------

func (sess *Session) readPump() {
	defer sess.server.unregisterSession(sess)

	sess.conn.SetReadLimit(maxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := sess.conn.ReadMessage()
		if err != nil {
			// Log only; teardown runs from the deferred unregister.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				sess.server.Logger.Info("WebSocket error from %s: %v", sess.remoteAddr, err)
			}
			break
		}
		sess.server.handleClientMessage(sess, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (sess *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Session closed the channel
				sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if frame, forced := message.(closeFrame); forced {
				sess.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(frame.code, frame.text))
				return
			}

			if err := sess.conn.WriteJSON(message); err != nil {
				sess.server.Logger.Info("Write error to %s: %v", sess.remoteAddr, err)
				return
			}

		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
