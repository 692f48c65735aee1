// Package config loads this core's runtime configuration from a YAML file
// via go-ucfg, the same loader the rest of the pack uses for its daemon
// configuration.
package config

import (
	"time"

	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
)

// Config is the complete set of tunables this core reads at startup. Field
// tags follow go-ucfg's "config" convention for YAML key mapping.
type Config struct {
	// Listen is the IPC endpoint this core accepts request frames on
	// (spec §6's inbound message transport), e.g. "unix:///run/mxresolved.sock".
	Listen string `config:"listen"`

	// Nameserver is the host:port of the nameserver used for hand-rolled
	// MX queries. Empty means "read the first entry from ResolvConfPath".
	Nameserver string `config:"nameserver"`

	// ResolvConfPath is consulted for a nameserver address when Nameserver
	// is empty.
	ResolvConfPath string `config:"resolvConfPath"`

	// ResolverTimeout bounds the hand-rolled MX query. The stdlib-backed
	// host/PTR lookups are not bounded by it.
	ResolverTimeout time.Duration `config:"resolverTimeout"`

	// MaxHostnameBytes is loaded from the file but not consulted by any
	// other component; inbound host/domain names are not checked against it.
	MaxHostnameBytes int `config:"maxHostnameBytes"`

	Log     LogConfig     `config:"log"`
	Metrics MetricsConfig `config:"metrics"`
}

// LogConfig configures the structured logger (internal/logging).
type LogConfig struct {
	Level      string `config:"level"`
	Stdout     bool   `config:"stdout"`
	Filename   string `config:"filename"`
	MaxSizeMB  int    `config:"maxSizeMB"`
	MaxAgeDays int    `config:"maxAgeDays"`
	MaxBackups int    `config:"maxBackups"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `config:"enabled"`
	Listen  string `config:"listen"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Listen:           "unix:///run/mxresolved.sock",
		ResolvConfPath:   "/etc/resolv.conf",
		ResolverTimeout:  5 * time.Second,
		MaxHostnameBytes: 255,
		Log:              LogConfig{Level: "info", Stdout: true},
		Metrics:          MetricsConfig{Enabled: true, Listen: ":9420"},
	}
}

// Load reads and unpacks a YAML configuration file at path, seeding unset
// fields from Default().
func Load(path string) (Config, error) {
	cfg := Default()

	ucfgConfig, err := yaml.NewConfigWithFile(path, ucfg.PathSep("."))
	if err != nil {
		return cfg, err
	}
	if err := ucfgConfig.Unpack(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
