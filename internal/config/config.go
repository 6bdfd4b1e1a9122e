// Package config loads service configuration from environment variables
// and an optional yaml file.
package config

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// StorageConfig holds trace storage configuration
type StorageConfig struct {
	// Path is the SQLite database file, or ":memory:" for an ephemeral store.
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
