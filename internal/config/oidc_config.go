package config

import "strings"

type OIDCConfig interface {
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCAuthURI() string
	GetOIDCTokenURI() string
	GetOIDCUserinfoURI() string
	GetOIDCIssuerURI() string
	GetOIDCScopes() []string
	GetOIDCEmailClaim() string
	GetOIDCUsernameClaim() string
	GetOIDCUserinfoPostURIs() []string
	OIDCEnabled() bool
}

type OIDC struct{}

var _ OIDCConfig = OIDC{}

func (OIDC) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (OIDC) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (OIDC) GetOIDCAuthURI() string {
	return GetEnv("OIDC_AUTH_URI", "")
}

func (OIDC) GetOIDCTokenURI() string {
	return GetEnv("OIDC_TOKEN_URI", "")
}

func (OIDC) GetOIDCUserinfoURI() string {
	return GetEnv("OIDC_USERINFO_URI", "")
}

// GetOIDCIssuerURI is optional. When set, missing endpoint values are filled
// in from the issuer's discovery document at startup.
func (OIDC) GetOIDCIssuerURI() string {
	return GetEnv("OIDC_ISSUER_URI", "")
}

func (OIDC) GetOIDCScopes() []string {
	return strings.Fields(GetEnv("OIDC_SCOPES", "openid profile email"))
}

// GetOIDCEmailClaim returns an optional dot-path into the merged claims that
// overrides which address the access check is performed against. Empty means
// the standard "email" claim.
func (OIDC) GetOIDCEmailClaim() string {
	return GetEnv("OIDC_EMAIL_CLAIM", "")
}

// GetOIDCUsernameClaim defaults to the OIDC standard "preferred_username".
func (OIDC) GetOIDCUsernameClaim() string {
	return GetEnv("OIDC_USERNAME_CLAIM", "preferred_username")
}

// GetOIDCUserinfoPostURIs lists userinfo endpoints that require a POST
// request instead of a GET. Dropbox is the known offender.
func (OIDC) GetOIDCUserinfoPostURIs() []string {
	uris := GetEnv("OIDC_USERINFO_POST_URIS", "https://api.dropboxapi.com/2/openid/userinfo")
	return strings.Fields(uris)
}

// OIDCEnabled reports whether every required endpoint and credential value is
// present. When any is missing the provider's routes are not registered.
func (o OIDC) OIDCEnabled() bool {
	return o.GetOIDCClientID() != "" &&
		o.GetOIDCClientSecret() != "" &&
		o.GetOIDCAuthURI() != "" &&
		o.GetOIDCTokenURI() != "" &&
		o.GetOIDCUserinfoURI() != ""
}
