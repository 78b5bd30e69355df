// Package session stages parse results between upload and operator
// confirmation: a tenant-scoped, time-bounded store plus the service that
// creates previews and applies identification mappings.
package session

import (
	"context"

	"github.com/steelforge/takeoff/internal/model"
)

// Store is the staging cache for import sessions. Session ids are opaque
// keys; expiry is evaluated lazily on access, so an expired session behaves
// identically to a missing one (common.ErrSessionNotFound). Tenant checks
// live above the store, in the Service.
type Store interface {
	// Create stores a new session under its id.
	Create(ctx context.Context, session *model.ImportSession) error

	// Get returns a copy of an unexpired session, or
	// common.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*model.ImportSession, error)

	// Update atomically applies fn to the stored session and persists the
	// outcome. No other writer observes an intermediate state; concurrent
	// updates serialize, making the whole record last-writer-wins. An error
	// from fn leaves the stored session unchanged.
	Update(ctx context.Context, id string, fn func(*model.ImportSession) error) (*model.ImportSession, error)

	// Remove evicts a session. Removing an absent session returns
	// common.ErrSessionNotFound.
	Remove(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}
