package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OIDC provider routes. The callback is registered for GET and POST:
	// some providers deliver the authorization response via form_post.
	RouteOIDCInitiate = "/auth/oidc"
	RouteOIDCCallback = "/auth/oidc.callback"

	// Where the browser lands after the pipeline finishes
	RouteHome         = "/home"
	RouteLoginFailure = "/"

	// Operational routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
