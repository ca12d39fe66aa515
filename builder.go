package assure

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/assurekit/assure/session"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  *redis.Client

	users     UserDirectory
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder pre-loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The config is cloned; later
// mutation of cfg by the caller does not affect the built Engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing all three stores.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the per-user OTP delivery preference lookup.
func (b *Builder) WithUserDirectory(users UserDirectory) *Builder {
	b.users = users
	return b
}

// WithAuditSink sets the audit destination. Ignored unless auditing is
// enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock injects the time source used for every TTL and expiry
// decision. Defaults to time.Now; tests inject a controllable clock.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and returns the Engine. A Builder
// builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b == nil {
		return nil, ErrEngineNotReady
	}
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user directory is required")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:       b.config,
		deviceTrust:  newDeviceTrustStore(b.redis, b.config.DeviceTrust),
		pendingAuthz: newPendingAuthorizationStore(b.redis, b.config.PendingAuthz),
		sessions:     session.NewStore(b.redis, b.config.Session.RedisPrefix),
		users:        b.users,
		audit:        newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:      NewMetrics(b.config.Metrics),
		clock:        clock,
	}

	b.built = true
	return engine, nil
}
