package interfaces

import "context"

// -----------------------------------------------------------------------------
// IRelayServer defining the interface for the downstream-facing server.
// -----------------------------------------------------------------------------

type IRelayServer interface {
	// -----------------------------------------------------------------------------
	// Start runs the listener. Blocks until the listener closes; a failed bind
	// is returned as an error.
	Start() error

	// -----------------------------------------------------------------------------
	// Stop tears down every live session and then shuts the listener down.
	Stop(ctx context.Context) error

	// -----------------------------------------------------------------------------
	// SessionCount reports the number of currently registered sessions.
	SessionCount() int
}
