package oidcauth_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumawork/go-sso-gateway/oidcauth"
	"github.com/stretchr/testify/require"
)

func accessServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestAccessGateCheck_Allowed(t *testing.T) {
	var gotUsername string
	ts := accessServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUsername = r.URL.Query().Get("username")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"has_access": true}`))
	})

	gate := oidcauth.NewAccessGate(ts.URL)
	decision, err := gate.Check(context.Background(), "ann mk2")
	require.NoError(t, err)

	require.Equal(t, oidcauth.DecisionAllowed, decision.Kind)
	require.Equal(t, "ann mk2", gotUsername)
}

func TestAccessGateCheck_Denied(t *testing.T) {
	ts := accessServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"has_access": false}`))
	})

	gate := oidcauth.NewAccessGate(ts.URL)
	decision, err := gate.Check(context.Background(), "ann")
	require.NoError(t, err)

	require.Equal(t, oidcauth.DecisionDenied, decision.Kind)
}

func TestAccessGateCheck_MissingEndpoint(t *testing.T) {
	gate := oidcauth.NewAccessGate("")
	_, err := gate.Check(context.Background(), "ann")
	require.ErrorIs(t, err, oidcauth.ErrAccessMisconfigured)
}

func TestAccessGateCheck_InvalidResponses(t *testing.T) {
	for name, body := range map[string]string{
		"not json":            `<html>It works!</html>`,
		"not an object":       `[true]`,
		"missing has_access":  `{"allowed": true}`,
		"has_access not bool": `{"has_access": "yes"}`,
	} {
		t.Run(name, func(t *testing.T) {
			ts := accessServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			gate := oidcauth.NewAccessGate(ts.URL)
			decision, err := gate.Check(context.Background(), "ann")
			require.NoError(t, err)

			require.Equal(t, oidcauth.DecisionUnavailable, decision.Kind)
			require.Equal(t, oidcauth.CauseInvalidResponse, decision.Cause)
		})
	}
}

func TestAccessGateCheck_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing is listening on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := "http://" + listener.Addr().String()
	require.NoError(t, listener.Close())

	gate := oidcauth.NewAccessGate(endpoint)
	decision, err := gate.Check(context.Background(), "ann")
	require.NoError(t, err)

	require.Equal(t, oidcauth.DecisionUnavailable, decision.Kind)
	require.Equal(t, oidcauth.CauseConnectionRefused, decision.Cause)
	require.Error(t, decision.Err)
}

func TestAccessGateCheck_NameResolution(t *testing.T) {
	// .invalid never resolves (RFC 2606).
	gate := oidcauth.NewAccessGate("http://access-api.invalid")
	decision, err := gate.Check(context.Background(), "ann")
	require.NoError(t, err)

	require.Equal(t, oidcauth.DecisionUnavailable, decision.Kind)
	require.Equal(t, oidcauth.CauseNameResolution, decision.Cause)
}

func TestAccessGateCheck_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := accessServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	gate := oidcauth.NewAccessGate(ts.URL, oidcauth.WithCheckTimeout(50*time.Millisecond))
	decision, err := gate.Check(context.Background(), "ann")
	require.NoError(t, err)

	require.Equal(t, oidcauth.DecisionUnavailable, decision.Kind)
	require.Equal(t, oidcauth.CauseTimeout, decision.Cause)
}

func TestAccessGateCheck_CallerCancellationSurfaces(t *testing.T) {
	ts := accessServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"has_access": true}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := oidcauth.NewAccessGate(ts.URL)
	_, err := gate.Check(ctx, "ann")
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultCheckTimeout(t *testing.T) {
	require.Equal(t, 5*time.Second, oidcauth.DefaultCheckTimeout)
}
