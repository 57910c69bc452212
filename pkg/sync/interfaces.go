// Package sync defines the contract shared by the git and HTTP
// synchronizers. A command invocation builds exactly one Synchronizer and
// executes it once.
package sync

import "context"

// Synchronizer performs one synchronization of a local path with a remote
// source. Implementations are not thread-safe.
type Synchronizer interface {
	// Execute performs the synchronization. The exact behavior depends on
	// the implementation (git clone/pull, sparse checkout, HTTP GET).
	Execute(ctx context.Context) error

	// Close releases any resources held by the synchronizer.
	Close(ctx context.Context)
}
