package wpactrl

import (
	"os/exec"
	"time"

	"github.com/imdario/mergo"
)

// SupplicantArgs describes how to start and reach a supplicant process.
// It is the Go counterpart of the fixed argv p2pd_interface.c builds
// for wpa_supplicant.
type SupplicantArgs struct {
	// Driver is passed as -D<Driver>. Defaults to "nl80211".
	Driver string
	// CtrlDir is the control-interface directory, passed as -C <CtrlDir>
	// and watched for the interface socket to appear.
	CtrlDir string
	// Iface is the network interface the supplicant manages, passed as
	// -i <Iface> and used as the control socket's file name.
	Iface string
	// BinaryPath overrides the resolved wpa_supplicant executable.
	// Defaults to the first "wpa_supplicant" found on PATH.
	BinaryPath string
}

func (a *SupplicantArgs) binary() (string, error) {
	if a.BinaryPath != "" {
		return a.BinaryPath, nil
	}
	return exec.LookPath("wpa_supplicant")
}

func (a *SupplicantArgs) driver() string {
	if a.Driver != "" {
		return a.Driver
	}
	return "nl80211"
}

// Config collects the tunables of a Dial call. Unset fields fold onto
// defaultConfig via mergo, matching the teacher's options-plus-defaults
// pattern.
type Config struct {
	// StartupTimeout bounds how long Dial waits for the supplicant's
	// control socket to appear. The connect and ATTACH that follow are
	// bounded by RequestTimeout instead.
	StartupTimeout time.Duration
	// RequestTimeout bounds a single Channel.Request round-trip.
	RequestTimeout time.Duration
	// PingPeriod is how often the liveness timer sends PING while the
	// channel is open, regardless of other traffic.
	PingPeriod time.Duration
	// Hooks receives trace callbacks; nil fields are no-ops.
	Hooks *Hooks
}

// Option configures a Dial call.
type Option func(*Config)

// WithStartupTimeout overrides the supplicant startup budget. Default
// 10s, matching wait_for_wpa's 10s cumulative timeout.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *Config) { c.StartupTimeout = d }
}

// WithRequestTimeout overrides the per-request budget. Default 1s,
// matching wpa_request's MSG_NOSIGNAL round-trip cap.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithPingPeriod overrides the liveness timer period. Default 10s.
func WithPingPeriod(d time.Duration) Option {
	return func(c *Config) { c.PingPeriod = d }
}

// WithHooks overrides the trace hooks. Default NoOpHooks.
func WithHooks(h *Hooks) Option {
	return func(c *Config) { c.Hooks = h }
}

var defaultConfig = Config{
	StartupTimeout: 10 * time.Second,
	RequestTimeout: time.Second,
	PingPeriod:     10 * time.Second,
	Hooks:          NoOpHooks,
}

func resolveConfig(opts []Option) *Config {
	cfg := defaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	_ = mergo.Merge(&cfg, defaultConfig)
	if cfg.Hooks == nil {
		cfg.Hooks = NoOpHooks
	}
	return &cfg
}
