package statestore_test

import (
	"testing"
	"time"

	"github.com/lumawork/go-sso-gateway/server/statestore"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_RoundTrip(t *testing.T) {
	repo := statestore.NewInMemoryRepo()

	stored := &statestore.State{
		TenantID:       "t1",
		ClientID:       "web",
		ReturnURL:      "/docs",
		ForwardedQuery: map[string]string{"code_verifier": "abc"},
		CreatedAt:      time.Now(),
	}
	require.NoError(t, repo.Upsert("state-1", stored))

	got, err := repo.Get("state-1")
	require.NoError(t, err)
	require.Equal(t, stored, got)
}

func TestInMemoryRepo_GetReturnsACopy(t *testing.T) {
	repo := statestore.NewInMemoryRepo()
	require.NoError(t, repo.Upsert("state-1", &statestore.State{
		ForwardedQuery: map[string]string{"k": "v"},
		CreatedAt:      time.Now(),
	}))

	first, err := repo.Get("state-1")
	require.NoError(t, err)
	first.ForwardedQuery["k"] = "tampered"

	second, err := repo.Get("state-1")
	require.NoError(t, err)
	require.Equal(t, "v", second.ForwardedQuery["k"])
}

func TestInMemoryRepo_UnknownState(t *testing.T) {
	repo := statestore.NewInMemoryRepo()
	_, err := repo.Get("never-stored")
	require.Error(t, err)
}

func TestInMemoryRepo_ExpiredState(t *testing.T) {
	repo := statestore.NewInMemoryRepo()
	require.NoError(t, repo.Upsert("state-1", &statestore.State{
		CreatedAt: time.Now().Add(-statestore.DefaultTTL - time.Second),
	}))

	_, err := repo.Get("state-1")
	require.Error(t, err)
}

func TestInMemoryRepo_DeleteMakesStateSingleUse(t *testing.T) {
	repo := statestore.NewInMemoryRepo()
	require.NoError(t, repo.Upsert("state-1", &statestore.State{CreatedAt: time.Now()}))

	require.NoError(t, repo.Delete("state-1"))
	_, err := repo.Get("state-1")
	require.Error(t, err)
}

func TestInMemoryRepo_Validation(t *testing.T) {
	repo := statestore.NewInMemoryRepo()
	require.Error(t, repo.Upsert("", &statestore.State{}))
	require.Error(t, repo.Upsert("state-1", nil))
	_, err := repo.Get("")
	require.Error(t, err)
	require.Error(t, repo.Delete(""))
}
