package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Secret   string          `yaml:"secret"` // Empty means open access
	Upstream MUpstreamConfig `yaml:"upstream"`
	Server   MServerConfig   `yaml:"server"`
}

// MUpstreamConfig controls the provider streaming connection opened per client.
type MUpstreamConfig struct {
	ConnectTimeout      MDuration `yaml:"connect_timeout"`
	AutoReconnect       bool      `yaml:"auto_reconnect"`
	ReconnectMaxRetries int       `yaml:"reconnect_max_retries"`
	ReconnectMaxDelay   MDuration `yaml:"reconnect_max_delay"`
}

// MServerConfig tunes the downstream websocket endpoint.
type MServerConfig struct {
	SendBufferSize  int       `yaml:"send_buffer_size"`
	ShutdownTimeout MDuration `yaml:"shutdown_timeout"`
}
