package config

type Config interface {
	EnvConfig
	OIDCConfig
	AccessConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAppURL() string
	GetRedisAddr() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OIDC
	Access
}

func New() Config {
	return mainConfig{}
}
