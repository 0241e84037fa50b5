package oidcauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/lumawork/go-sso-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultCheckTimeout bounds the access-control API call. The call races this
// deadline; whichever settles first decides, and the loser is abandoned.
const DefaultCheckTimeout = 5 * time.Second

const maxAccessResponseBytes = 1 << 20

// DecisionKind tags an AccessDecision.
type DecisionKind int

const (
	DecisionAllowed DecisionKind = iota
	DecisionDenied
	DecisionUnavailable
)

// UnavailableCause distinguishes infrastructure failures from a malformed
// service reply so operators can tell an outage from a broken deploy.
type UnavailableCause int

const (
	CauseNone UnavailableCause = iota
	CauseConnectionRefused
	CauseNameResolution
	CauseTimeout
	CauseInvalidResponse
)

// AccessDecision is the classified outcome of the external access check.
type AccessDecision struct {
	Kind  DecisionKind
	Cause UnavailableCause
	Err   error // Underlying failure, diagnostic only
}

// AccessGate queries the external access-control API. The check fails
// closed: anything other than an Allowed decision aborts sign-in.
type AccessGate struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

type AccessGateOption func(*AccessGate)

// WithCheckTimeout overrides the 5 second decision deadline (tests only).
func WithCheckTimeout(d time.Duration) AccessGateOption {
	return func(g *AccessGate) {
		g.timeout = d
	}
}

func WithGateHTTPClient(client *http.Client) AccessGateOption {
	return func(g *AccessGate) {
		g.client = client
	}
}

// NewAccessGate builds a gate for the given API endpoint. An empty endpoint
// is permitted at construction; Check reports it as a configuration error.
func NewAccessGate(endpoint string, options ...AccessGateOption) *AccessGate {
	g := &AccessGate{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  DefaultCheckTimeout,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Check issues a single GET with the username and classifies the outcome.
// It returns a non-nil error only for a missing endpoint configuration
// (ErrAccessMisconfigured) or for a transport failure that matches none of
// the known causes, which is surfaced as-is rather than reinterpreted.
// No retries: a failed check is classified once and returned.
func (g *AccessGate) Check(ctx context.Context, username string) (AccessDecision, error) {
	if g.endpoint == "" {
		return AccessDecision{}, ErrAccessMisconfigured
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	checkURL := g.endpoint + "?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, checkURL, nil)
	if err != nil {
		return AccessDecision{}, err
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := g.client.Do(req)
	metrics.AccessCheckDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return g.classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAccessResponseBytes))
	if err != nil {
		return g.classifyTransportError(err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn().Int("status", resp.StatusCode).Msg("access API returned a non-JSON response")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseInvalidResponse, Err: err}, nil
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		log.Warn().Int("status", resp.StatusCode).Msg("access API response is not an object")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseInvalidResponse}, nil
	}
	hasAccess, ok := obj["has_access"].(bool)
	if !ok {
		log.Warn().Int("status", resp.StatusCode).Msg("access API response is missing a boolean has_access field")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseInvalidResponse}, nil
	}

	if !hasAccess {
		log.Info().Str("username", username).Msg("access API denied access")
		return AccessDecision{Kind: DecisionDenied}, nil
	}
	return AccessDecision{Kind: DecisionAllowed}, nil
}

// classifyTransportError sorts request failures into unavailable causes.
// Connection refused, name resolution failure, and the deadline firing first
// are infrastructure problems; anything else surfaces as an unclassified
// error so it is not mistaken for a deny.
func (g *AccessGate) classifyTransportError(err error) (AccessDecision, error) {
	switch {
	case errorIsTimeout(err):
		log.Warn().Dur("timeout", g.timeout).Msg("access API call timed out")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseTimeout, Err: err}, nil
	case isDNSError(err):
		log.Warn().Err(err).Msg("access API name resolution failed")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseNameResolution, Err: err}, nil
	case isConnectionRefused(err):
		log.Warn().Err(err).Msg("access API connection refused")
		return AccessDecision{Kind: DecisionUnavailable, Cause: CauseConnectionRefused, Err: err}, nil
	default:
		return AccessDecision{}, err
	}
}

func errorIsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
