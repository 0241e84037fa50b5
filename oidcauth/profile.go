package oidcauth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ClaimConfig controls which claims the normalizer extracts from the merged
// profile.
type ClaimConfig struct {
	// EmailClaim is an optional dot-path selecting the address used for the
	// access check. Empty selects the standard "email" claim.
	EmailClaim string
	// UsernameClaim is the dot-path for the username claim. Defaults to the
	// OIDC standard "preferred_username".
	UsernameClaim string
}

const defaultUsernameClaim = "preferred_username"

// Profile is the merged view of the userinfo response and the ID-token
// payload, with the fields the rest of the pipeline needs extracted.
type Profile struct {
	// Claims holds the merged claims: userinfo overlaid with the ID-token
	// payload, ID-token winning on collision.
	Claims map[string]any

	Email         string // Canonical email, used for provisioning
	SelectedEmail string // Email chosen for the access check (claim override or canonical)
	Name          string // Display name
	Username      string
	Subject       string // External subject identifier (sub, falling back to id)
	AvatarURL     string
}

// NormalizeProfile merges the userinfo response with the ID-token payload and
// extracts the required fields. ID-token enrichment is best effort: a token
// that cannot be decoded is logged and skipped, never fatal.
func NormalizeProfile(userInfo map[string]any, rawIDToken string, cfg ClaimConfig) (*Profile, error) {
	claims := make(map[string]any, len(userInfo))
	for k, v := range userInfo {
		claims[k] = v
	}

	if rawIDToken != "" {
		payload, err := decodeIDTokenPayload(rawIDToken)
		if err != nil {
			log.Warn().Err(err).Msg("failed to parse ID token, continuing with userinfo claims only")
		} else {
			for k, v := range payload {
				claims[k] = v
			}
			log.Debug().Int("claims", len(payload)).Msg("ID token claims merged into profile")
		}
	}

	usernameClaim := cfg.UsernameClaim
	if usernameClaim == "" {
		usernameClaim = defaultUsernameClaim
	}

	canonicalEmail := stringClaim(claims["email"])
	selectedEmail := canonicalEmail
	if cfg.EmailClaim != "" {
		if override := stringClaim(claimPath(claims, cfg.EmailClaim)); override != "" {
			selectedEmail = override
		}
	}
	if canonicalEmail == "" {
		canonicalEmail = selectedEmail
	}
	if canonicalEmail == "" {
		return nil, errors.Wrap(ErrMalformedProfile, "no email claim in profile")
	}

	username := stringClaim(claimPath(claims, usernameClaim))
	name := stringClaim(claims["name"])
	if name == "" {
		name = username
	}
	if name == "" {
		name = stringClaim(claims["username"])
	}
	if name == "" {
		return nil, errors.Wrap(ErrMissingName, "no name or username claim in profile")
	}

	subject := stringClaim(claims["sub"])
	if subject == "" {
		subject = stringClaim(claims["id"])
	}

	return &Profile{
		Claims:        claims,
		Email:         canonicalEmail,
		SelectedEmail: selectedEmail,
		Name:          name,
		Username:      username,
		Subject:       subject,
		AvatarURL:     stringClaim(claims["picture"]),
	}, nil
}

// decodeIDTokenPayload extracts the claims object from a compact JWT without
// verifying the signature. The token is only used to enrich userinfo claims;
// the authenticated channel it arrived on is the credential.
func decodeIDTokenPayload(rawToken string) (map[string]any, error) {
	segments := strings.Split(rawToken, ".")
	if len(segments) < 2 {
		return nil, errors.New("token has fewer than two segments")
	}
	data, err := decodeSegment(segments[1])
	if err != nil {
		return nil, errors.Wrap(err, "payload segment is not base64")
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(err, "payload is not a JSON object")
	}
	return payload, nil
}

// decodeSegment accepts both base64 alphabets, padded or not, since
// providers are not consistent about the URL-safe encoding JWTs mandate.
func decodeSegment(segment string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		if data, err := enc.DecodeString(segment); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("invalid base64")
}

// claimPath walks a dot-path into nested claim objects, returning nil when
// any intermediate step is missing or not an object.
func claimPath(claims map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var current any = claims
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return current
}

// stringClaim renders a claim value as a string. Numeric subjects show up in
// the wild, so numbers are formatted rather than dropped.
func stringClaim(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	default:
		return ""
	}
}
