// Package api provides typed clients for the ZamaniVault backend's
// content, account, and analytics endpoints. All requests flow through
// the transport gateway, which handles bearer tokens and refresh.
package api

import "context"

// Backend is the slice of the HTTP gateway the clients depend on.
type Backend interface {
	Do(ctx context.Context, method, endpoint string, body, out any) error
}
