package bridge

import (
	"net"
	"strconv"
	"time"

	"github.com/kingrea/acme-blogs/internal/config"
)

const (
	// DefaultMaxBodyBytes limits request payloads to 64 KB.
	DefaultMaxBodyBytes int64 = 64 << 10
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes. Select events wait on the
	// whole refresh, so this is longer than the API timeout.
	DefaultWriteTimeout = 60 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the HTTP event bridge server.
// Port 0 binds an ephemeral port.
type Settings struct {
	Enabled      bool
	Host         string
	Port         int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SettingsFromConfig maps the bridge section of the project config, which
// already carries its defaults and ACMEBLOGS_BRIDGE_* overrides, onto server
// settings. A nil config yields a disabled bridge on the default address.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := Settings{
		Host:         config.DefaultBridgeHost,
		Port:         config.DefaultBridgePort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	if cfg == nil {
		return s
	}
	s.Enabled = cfg.BridgeEnabled()
	if host := cfg.Project.Bridge.Host; host != "" {
		s.Host = host
	}
	if port := cfg.Project.Bridge.Port; port > 0 && port <= 65535 {
		s.Port = port
	}
	return s
}

func (s Settings) withDefaults() Settings {
	if s.Host == "" {
		s.Host = config.DefaultBridgeHost
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	return s
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}
