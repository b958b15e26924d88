package config

import "errors"

var (
	// ErrConfigUnmarshal is returned when config unmarshalling fails
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
	// ErrConfigFile is returned when the config file exists but cannot be read or parsed
	ErrConfigFile = errors.New("failed to load configuration file")
	// ErrConfigEnv is returned when environment overrides cannot be loaded
	ErrConfigEnv = errors.New("failed to load environment configuration")
	// ErrInvalidConfig is returned when the loaded configuration is inconsistent
	ErrInvalidConfig = errors.New("invalid configuration")
)
