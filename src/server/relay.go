package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"tick-relay/src/helpers"
	"tick-relay/src/interfaces"
	"tick-relay/src/logger"
	"tick-relay/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// RelayServer
// -----------------------------------------------------------------------------

// RelayServer owns the set of live downstream sessions. It terminates inbound
// client commands into session operations and fans upstream events back out to
// exactly the session that owns them.
type RelayServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine
	errors *helpers.ErrorHandler

	httpServer *http.Server
	factory    interfaces.StreamFactory

	// Session registry
	sessions   map[*Session]struct{}
	sessionsMu sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewRelayServer(cfg *models.MConfig, log *logger.Logger, factory interfaces.StreamFactory) *RelayServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &RelayServer{
		Config:   cfg,
		Logger:   log,
		engine:   gin.New(),
		errors:   helpers.NewErrorHandler(cfg.LogLevel),
		factory:  factory,
		sessions: make(map[*Session]struct{}),
	}

	s.engine.Use(gin.Recovery())

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *RelayServer) setupRoutes() {
	// Operational endpoints
	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/debug/sessions", s.getDebugSessions)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start binds the listener and serves until Stop is called. A failed bind is
// returned to the caller; a clean shutdown is not an error.
func (s *RelayServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting relay server on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop tears down every live session (best-effort upstream disconnect, then
// socket close), then stops accepting connections and waits for the listener
// to fully close.
func (s *RelayServer) Stop(ctx context.Context) error {
	s.sessionsMu.Lock()
	snapshot := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.sessions = make(map[*Session]struct{})
	s.sessionsMu.Unlock()

	s.Logger.Info("Closing %d live sessions", len(snapshot))
	for _, sess := range snapshot {
		sess.close()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// -----------------------------------------------------------------------------

// SessionCount reports the number of registered sessions.
func (s *RelayServer) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

// -----------------------------------------------------------------------------
// Session Registry
// -----------------------------------------------------------------------------

func (s *RelayServer) registerSession(sess *Session) {
	s.sessionsMu.Lock()
	s.sessions[sess] = struct{}{}
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	s.Logger.Info("Client connected from %s (%d sessions)", sess.remoteAddr, count)
}

// -----------------------------------------------------------------------------

func (s *RelayServer) unregisterSession(sess *Session) {
	s.sessionsMu.Lock()
	_, ok := s.sessions[sess]
	if ok {
		delete(s.sessions, sess)
	}
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	sess.close()

	if ok {
		s.Logger.Info("Client disconnected from %s (%d sessions)", sess.remoteAddr, count)
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *RelayServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

// -----------------------------------------------------------------------------

func (s *RelayServer) getDebugSessions(c *gin.Context) {
	s.sessionsMu.RLock()
	snapshot := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.sessionsMu.RUnlock()

	list := make([]gin.H, 0, len(snapshot))
	for _, sess := range snapshot {
		list = append(list, sess.debugInfo())
	}

	c.JSON(200, gin.H{
		"count":    len(list),
		"sessions": list,
	})
}

// -----------------------------------------------------------------------------

func (s *RelayServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	sess := newSession(s, conn)
	s.registerSession(sess)

	// Start goroutines for reading/writing
	go sess.writePump()
	go sess.readPump()
}
