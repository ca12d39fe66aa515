package assure

import (
	"errors"
	"net/url"
	"time"
)

// Config defines the immutable configuration of the assurance engine.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. Validation happens in [Builder.Build].
type Config struct {
	DeviceTrust  DeviceTrustConfig
	PendingAuthz PendingAuthzConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
DEVICE TRUST CONFIG
====================================
*/

// DeviceTrustConfig controls remembered-device trust windows.
//
// RememberDeviceTTL is keyed by assurance level; a sign-in flow at a given
// level checks the presented token against that level's window. Only AAL1
// is required; levels without an entry never honor remembered devices.
type DeviceTrustConfig struct {
	RedisPrefix       string
	RememberDeviceTTL map[AssuranceLevel]time.Duration
}

/*
====================================
PENDING AUTHORIZATION CONFIG
====================================
*/

// PendingAuthzConfig controls the lifetime of stored federated
// authorization requests and the fallback destination used when none is
// resolvable.
type PendingAuthzConfig struct {
	RedisPrefix string
	// TTL must be strictly greater than Session.IdleTimeout so that a user
	// who idles past session eviction can still be routed correctly.
	TTL                time.Duration
	DefaultRedirectURL string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the ephemeral authentication session records.
type SessionConfig struct {
	RedisPrefix string
	IdleTimeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by assure APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by assure APIs.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration [New] starts from: a 12 hour
// AAL1 remember-device window, a 30 minute session idle timeout, and a 45
// minute pending authorization TTL.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		DeviceTrust: DeviceTrustConfig{
			RedisPrefix: "adt",
			RememberDeviceTTL: map[AssuranceLevel]time.Duration{
				AAL1: 12 * time.Hour,
			},
		},
		PendingAuthz: PendingAuthzConfig{
			RedisPrefix:        "apa",
			TTL:                45 * time.Minute,
			DefaultRedirectURL: "/account",
		},
		Session: SessionConfig{
			RedisPrefix: "asn",
			IdleTimeout: 30 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.DeviceTrust.RememberDeviceTTL != nil {
		ttl := make(map[AssuranceLevel]time.Duration, len(cfg.DeviceTrust.RememberDeviceTTL))
		for level, d := range cfg.DeviceTrust.RememberDeviceTTL {
			ttl[level] = d
		}
		out.DeviceTrust.RememberDeviceTTL = ttl
	}
	return out
}

func (c Config) validate() error {
	if c.DeviceTrust.RedisPrefix == "" {
		return errors.New("DeviceTrust RedisPrefix is required")
	}
	if len(c.DeviceTrust.RememberDeviceTTL) == 0 {
		return errors.New("DeviceTrust RememberDeviceTTL must define at least AAL1")
	}
	ttl, ok := c.DeviceTrust.RememberDeviceTTL[AAL1]
	if !ok {
		return errors.New("DeviceTrust RememberDeviceTTL must define AAL1")
	}
	if ttl <= 0 {
		return errors.New("DeviceTrust RememberDeviceTTL[AAL1] must be > 0")
	}
	for level, d := range c.DeviceTrust.RememberDeviceTTL {
		if level != AAL1 && d <= 0 {
			return errors.New("DeviceTrust RememberDeviceTTL entries must be > 0")
		}
	}

	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix is required")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be > 0")
	}

	if c.PendingAuthz.RedisPrefix == "" {
		return errors.New("PendingAuthz RedisPrefix is required")
	}
	if c.PendingAuthz.TTL <= c.Session.IdleTimeout {
		return errors.New("PendingAuthz TTL must be strictly greater than Session IdleTimeout")
	}
	if c.PendingAuthz.DefaultRedirectURL == "" {
		return errors.New("PendingAuthz DefaultRedirectURL is required")
	}
	if _, err := url.Parse(c.PendingAuthz.DefaultRedirectURL); err != nil {
		return errors.New("PendingAuthz DefaultRedirectURL is not a valid URL")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	prefixes := map[string]struct{}{
		c.DeviceTrust.RedisPrefix:  {},
		c.PendingAuthz.RedisPrefix: {},
		c.Session.RedisPrefix:      {},
	}
	if len(prefixes) != 3 {
		return errors.New("store RedisPrefix values must be distinct")
	}

	return nil
}

// rememberTTL resolves the trust window for an assurance level. A zero
// return means remembered devices are never honored at that level.
func (c Config) rememberTTL(level AssuranceLevel) time.Duration {
	if c.DeviceTrust.RememberDeviceTTL == nil {
		return 0
	}
	return c.DeviceTrust.RememberDeviceTTL[level]
}

// maxRememberTTL is the storage lifetime of a token record: the longest
// window any assurance level may check it against.
func (c Config) maxRememberTTL() time.Duration {
	var max time.Duration
	for _, d := range c.DeviceTrust.RememberDeviceTTL {
		if d > max {
			max = d
		}
	}
	return max
}
