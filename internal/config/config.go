// Package config holds the configuration surface for the packet engine,
// session protocol, and replay filter, loaded from TOML the way the
// teacher codebase loads its client/server configuration.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hoprnet/hopr-mixnode/internal/session"
)

// MixerDelayConfig controls the distribution the outbound Delayer samples
// from before releasing a packet to the transport. This resolves the
// mixer's distribution choice, left open by the source material.
type MixerDelayConfig struct {
	// Distribution is either "uniform" or "exponential".
	Distribution string        `toml:"distribution"`
	Lambda       float64       `toml:"lambda"`
	MaxDelay     time.Duration `toml:"max_delay"`
}

// DefaultMixerDelayConfig is the documented default: exponential delay,
// matching typical mixnet literature and the rate-based knobs the teacher
// derives from its PKI document (messageOrLoop/loopMaxDelay and friends).
func DefaultMixerDelayConfig() MixerDelayConfig {
	return MixerDelayConfig{
		Distribution: "exponential",
		Lambda:       1.0 / 50 /* ms^-1 */ * 1000,
		MaxDelay:     5 * time.Second,
	}
}

// ReplayFilterConfig controls the Bloom-filter replay detector.
type ReplayFilterConfig struct {
	FalsePositiveRate   float64       `toml:"false_positive_rate"`
	WindowDuration      time.Duration `toml:"window_duration"`
	PersistInterval     time.Duration `toml:"persist_interval"`
	ExpectedTagsPerPage uint          `toml:"expected_tags_per_page"`
}

func DefaultReplayFilterConfig() ReplayFilterConfig {
	return ReplayFilterConfig{
		FalsePositiveRate:   1e-6,
		WindowDuration:      30 * time.Minute,
		PersistInterval:     10 * time.Second,
		ExpectedTagsPerPage: 1_000_000,
	}
}

// SessionConfig controls the reliability parameters of the Session
// protocol (C4).
type SessionConfig struct {
	MaxHops            int           `toml:"max_hops"`
	PayloadSize        int           `toml:"payload_size"`
	SegmentPayloadSize int           `toml:"segment_payload_size"`
	AckFlushDelay      time.Duration `toml:"ack_flush_delay"`
	RetransmitTimeout  time.Duration `toml:"retransmit_timeout"`
	MaxRetransmits     int           `toml:"max_retransmits"`
	FrameEvictTimeout  time.Duration `toml:"frame_evict_timeout"`
	SendWindow         int           `toml:"send_window"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxHops:            4,
		PayloadSize:        500,
		SegmentPayloadSize: 462,
		AckFlushDelay:      100 * time.Millisecond,
		RetransmitTimeout:  2 * time.Second,
		MaxRetransmits:     4,
		FrameEvictTimeout:  30 * time.Second,
		SendWindow:         64,
	}
}

// Config is the top-level configuration document.
type Config struct {
	Mixer   MixerDelayConfig   `toml:"mixer"`
	Replay  ReplayFilterConfig `toml:"replay"`
	Session SessionConfig      `toml:"session"`
}

func Default() Config {
	return Config{
		Mixer:   DefaultMixerDelayConfig(),
		Replay:  DefaultReplayFilterConfig(),
		Session: DefaultSessionConfig(),
	}
}

// Load parses a TOML document into a Config, filling in defaults for
// anything left unset and validating the result.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ToDriverConfig narrows SessionConfig to the subset internal/session's
// Driver needs, keeping the two packages decoupled (session must not
// import config, since config's defaults double as session's tests'
// fixtures indirectly through this conversion).
func (s SessionConfig) ToDriverConfig() session.Config {
	return session.Config{
		Capacity:          s.SegmentPayloadSize,
		AckFlushDelay:     s.AckFlushDelay,
		RetransmitTimeout: s.RetransmitTimeout,
		FrameEvictTimeout: s.FrameEvictTimeout,
	}
}

func (c Config) Validate() error {
	if c.Mixer.Distribution != "uniform" && c.Mixer.Distribution != "exponential" {
		return fmt.Errorf("config: mixer.distribution must be uniform or exponential, got %q", c.Mixer.Distribution)
	}
	if c.Session.MaxHops <= 0 {
		return fmt.Errorf("config: session.max_hops must be positive")
	}
	if c.Session.SegmentPayloadSize <= 0 || c.Session.SegmentPayloadSize > c.Session.PayloadSize {
		return fmt.Errorf("config: session.segment_payload_size must be in (0, payload_size]")
	}
	return nil
}
