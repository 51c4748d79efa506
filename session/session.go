// Package session owns the runtime authentication state: the session
// manager is the sole authority for state transitions and the only
// writer to the credential store, and it publishes a reactive snapshot
// for view layers to consume.
package session

import (
	"github.com/zamanivault/zamanivault-go/domain/auth"
)

// Snapshot is the published view of the session. Identity is a copy;
// mutating it never affects manager state.
type Snapshot struct {
	Identity        *auth.Identity
	IsAuthenticated bool
	IsAdmin         bool
	IsLoading       bool
}

// subscriber pairs a registration id with its callback so subscribers
// can be removed without disturbing notification order.
type subscriber struct {
	id int
	fn func(Snapshot)
}
