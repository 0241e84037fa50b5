package statestore

import "time"

// DefaultTTL is how long an authorization roundtrip may take before its
// state expires.
const DefaultTTL = 10 * time.Minute

// State is what the gateway remembers between redirecting the user to the
// identity provider and the provider redirecting back. ForwardedQuery holds
// the query parameters that arrived on the initiate request; they are
// replayed as token-exchange parameters on the callback.
type State struct {
	TenantID       string
	ClientID       string
	ReturnURL      string
	ForwardedQuery map[string]string
	CreatedAt      time.Time
}

// Repo stores CSRF state for the authorization roundtrip. Implementations
// must treat Get of an unknown or expired state as an error; the exchange
// must never complete on a forged or replayed state.
type Repo interface {
	Upsert(state string, data *State) error
	Get(state string) (*State, error)
	Delete(state string) error
}
