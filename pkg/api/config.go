package api

import "time"

// APIConfig configures the gateway's HTTP server.
type APIConfig struct {
	// BindAddr is the host:port the server listens on.
	// Default: 127.0.0.1:3001
	BindAddr string `mapstructure:"bind_addr" yaml:"bind_addr"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response, left generous since chi's per-route timeout middleware —
	// not this field — is what actually bounds an individual handler.
	// Default: 6m
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// QuickTimeout bounds routes that only ever talk to S3's control plane
	// (list, metadata, presign, bucket info): the 30s tier of spec.md §5.
	// Default: 30s
	QuickTimeout time.Duration `mapstructure:"quick_timeout" yaml:"quick_timeout"`

	// DataTimeout bounds routes that stream object bytes through the
	// gateway (single-PUT upload, multipart parts): the 5 minute tier of
	// spec.md §5.
	// Default: 5m
	DataTimeout time.Duration `mapstructure:"data_timeout" yaml:"data_timeout"`

	// MetricsEnabled controls whether GET /metrics is registered.
	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	// SeedTestItemsEnabled mirrors the --seed-test-items flag. NewRouter
	// does not read it: route registration follows
	// services.Services.SeedTestItemsEnabled, which the serve command sets
	// from the same flag.
	SeedTestItemsEnabled bool `mapstructure:"seed_test_items_enabled" yaml:"seed_test_items_enabled"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *APIConfig) applyDefaults() {
	if c.BindAddr == "" {
		c.BindAddr = "127.0.0.1:3001"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 6 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.QuickTimeout == 0 {
		c.QuickTimeout = 30 * time.Second
	}
	if c.DataTimeout == 0 {
		c.DataTimeout = 5 * time.Minute
	}
}
