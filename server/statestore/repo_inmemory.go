package statestore

import (
	"errors"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface, used for single-instance deployments and tests.
type InMemoryRepo struct {
	mu     sync.RWMutex
	ttl    time.Duration
	states map[string]*State
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		ttl:    DefaultTTL,
		states: make(map[string]*State),
	}
}

func (r *InMemoryRepo) Upsert(state string, data *State) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if data == nil {
		return errors.New("state data cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = copyState(data)
	return nil
}

func (r *InMemoryRepo) Get(state string) (*State, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.states[state]
	if !exists {
		return nil, errors.New("state not found")
	}
	if time.Since(data.CreatedAt) > r.ttl {
		return nil, errors.New("state expired")
	}
	return copyState(data), nil
}

func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

// copyState prevents external modification of stored state.
func copyState(data *State) *State {
	copied := &State{
		TenantID:  data.TenantID,
		ClientID:  data.ClientID,
		ReturnURL: data.ReturnURL,
		CreatedAt: data.CreatedAt,
	}
	if data.ForwardedQuery != nil {
		copied.ForwardedQuery = make(map[string]string, len(data.ForwardedQuery))
		for k, v := range data.ForwardedQuery {
			copied.ForwardedQuery[k] = v
		}
	}
	return copied
}
