package store

import "context"

// Storage keys. Each key holds one JSON array: the full serialized
// collection it names.
const (
	KeyPendingApprovals  = "pendingApprovals"
	KeyApprovedApprovals = "approvedApprovals"
	KeyRejectedApprovals = "rejectedApprovals"
	KeyNotifications     = "notifications"
)

// Storage is the persistence boundary for both stores. Collections are
// rehydrated through Load at startup and written through Save after
// every mutation. Implementations must preserve order and field values
// across a Save/Load round trip.
type Storage interface {
	// Load reads the value stored under key into dest. It returns
	// (false, nil) when the key has never been written.
	Load(ctx context.Context, key string, dest any) (bool, error)
	// Save serializes value and stores it under key, replacing any
	// previous value.
	Save(ctx context.Context, key string, value any) error
}
