package oidcauth

import "errors"

// Terminal failure kinds of the sign-in pipeline. Every stage failure is
// mapped onto exactly one of these (or, for provisioning and unclassified
// transport failures, propagated unchanged).
var (
	// ErrMalformedProfile: the merged claims expose no resolvable email, or
	// the email carries no parseable domain.
	ErrMalformedProfile = errors.New("malformed user profile")

	// ErrMissingName: neither a name nor any username candidate was found.
	ErrMissingName = errors.New("profile has no name or username")

	// ErrAccessMisconfigured: the access-control API endpoint is unset.
	ErrAccessMisconfigured = errors.New("access control system is not configured")

	// ErrAccessUnavailable: the access-control API could not be reached
	// (connection refused, name resolution failure, or timeout).
	ErrAccessUnavailable = errors.New("access control system unavailable")

	// ErrAccessDenied: the access-control API explicitly reported no access.
	ErrAccessDenied = errors.New("user does not have required access")

	// ErrInvalidAccessResponse: the access-control API replied with something
	// other than an object containing a boolean has_access field.
	ErrInvalidAccessResponse = errors.New("invalid response from access control system")
)

// Kind returns a stable label for an error, used for metrics and for the
// notice code the web layer redirects with. Unrecognized errors (including
// provisioning failures) report as "auth_error".
func Kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMalformedProfile):
		return "malformed_profile"
	case errors.Is(err, ErrMissingName):
		return "missing_name"
	case errors.Is(err, ErrAccessMisconfigured):
		return "access_misconfigured"
	case errors.Is(err, ErrAccessUnavailable):
		return "access_unavailable"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrInvalidAccessResponse):
		return "invalid_access_response"
	default:
		return "auth_error"
	}
}
