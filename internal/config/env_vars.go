package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	appURLVar     = "URL"
	redisAddrVar  = "REDIS_ADDR"
	environmentVar = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "SSO Gateway")
}

// GetAppURL returns the public URL of the application, used to build the
// OAuth2 callback URL handed to the identity provider.
func (EnvVars) GetAppURL() string {
	return GetEnv(appURLVar, "http://localhost:8080")
}

// GetRedisAddr returns the redis address for the login state store. Empty
// means the in-memory store is used.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(environmentVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
