// Package storagetier provides the small key/value adapter interface the
// PKCE state store iterates over, together with in-memory, file-backed and
// Redis-backed implementations. Tiers are ordered by the caller; an
// adapter error is a "tier unavailable" signal, not a hard failure.
package storagetier

// Name identifies which tier a record physically landed in. Recorded on the
// flow record after a successful write, for diagnostics only.
type Name string

const (
	// Persistent survives process restarts (file or Redis backed).
	Persistent Name = "persistent"

	// Session survives reloads of the embedding component but not restarts.
	Session Name = "session"

	// Memory survives neither; last resort for restricted environments.
	Memory Name = "memory"
)

// Tier is the capability contract every storage backend satisfies.
// Operations are short and synchronous; implementations wrap any internal
// I/O with their own timeouts.
type Tier interface {
	// Name reports which tier this adapter represents.
	Name() Name

	// SetItem writes value under key, overwriting any previous value.
	SetItem(key, value string) error

	// GetItem reads the value for key. The boolean reports presence;
	// a missing key is not an error.
	GetItem(key string) (string, bool, error)

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error

	// Keys lists all stored keys beginning with prefix.
	Keys(prefix string) ([]string, error)

	// Available is a cheap capability probe. It must never panic; a probe
	// that fails internally reports false.
	Available() bool
}
