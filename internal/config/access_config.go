package config

type AccessConfig interface {
	GetAccessAPI() string
}

type Access struct{}

var _ AccessConfig = Access{}

// GetAccessAPI returns the base URL of the external access-control API.
// An empty value is a configuration error once sign-in reaches the access
// check; it does not disable the provider.
func (Access) GetAccessAPI() string {
	return GetEnv("ACCESS_API", "")
}
