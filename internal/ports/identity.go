package ports

// IdentityStore persists the device-stable participant identifier, the only
// datum that survives outside the in-memory model. Reconnecting with the same
// identifier retains a player's identity and point balance.
type IdentityStore interface {
	// Load returns the stored identifier, or "" with a nil error when none
	// has been saved yet.
	Load() (string, error)

	// Save stores the identifier under the fixed device key.
	Save(id string) error
}
