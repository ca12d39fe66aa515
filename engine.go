package assure

import (
	"context"
	"time"

	"github.com/assurekit/assure/internal"
	"github.com/assurekit/assure/session"
)

// Engine is the authentication-assurance decision core. It owns the
// device trust store, the pending authorization store, and the session
// store, and exposes the per-request decision and continuation operations.
//
// Engine instances are configured through [Builder] and treated as
// immutable afterwards; all methods are safe for concurrent use.
type Engine struct {
	config       Config
	deviceTrust  *deviceTrustStore
	pendingAuthz *pendingAuthorizationStore
	sessions     *session.Store
	users        UserDirectory
	audit        *auditDispatcher
	metrics      *Metrics
	clock        func() time.Time
}

// Close flushes the audit dispatcher. The Engine must not be used after
// Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// BeginSession creates a PasswordVerified session for userID. It is
// invoked by the external credential collaborator once the password has
// been accepted; the assurance core never sees the password itself.
func (e *Engine) BeginSession(ctx context.Context, userID string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	now := e.now()
	sess := &session.Session{
		SessionID: sid.String(),
		UserID:    userID,
		Level:     uint8(PasswordVerified),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.IdleTimeout).Unix(),
	}

	if err := e.sessions.Save(ctx, sess, e.config.Session.IdleTimeout); err != nil {
		e.emitAudit(ctx, auditEventSessionCreateFailed, false, userID, sess.SessionID, err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, userID, sess.SessionID, nil, nil)

	return sess, nil
}

// Session returns the live session for sessionID, or ErrSessionNotFound
// when it is absent or idled out.
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := e.sessions.Get(ctx, sessionID, e.now())
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// EndSession destroys the session record. Pending authorization requests
// live under their own keys and are deliberately left untouched: a sign
// out or idle eviction never cancels an in-flight federated sign-in.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	existed, err := e.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if existed {
		e.metricInc(MetricSessionEnded)
		e.emitAudit(ctx, auditEventSessionEnded, true, "", sessionID, nil, nil)
	}
	return nil
}

// saveSession rewrites sess with a fresh idle window. Any state mutation
// counts as activity.
func (e *Engine) saveSession(ctx context.Context, sess *session.Session) error {
	sess.ExpiresAt = e.now().Add(e.config.Session.IdleTimeout).Unix()
	return e.sessions.Save(ctx, sess, e.config.Session.IdleTimeout)
}

// touchDevice updates the device row for the authenticated client when a
// fingerprint is present on ctx. Touch failures are audit-only: device
// history must never block a successful authentication.
func (e *Engine) touchDevice(ctx context.Context, userID string) {
	fingerprint := fingerprintFromContext(ctx)
	if fingerprint == "" {
		return
	}

	_, err := e.deviceTrust.RegisterOrTouch(ctx, userID, fingerprint, clientIPFromContext(ctx), e.now())
	if err != nil {
		e.emitAudit(ctx, auditEventDeviceTouchFailed, false, userID, "", err, nil)
	}
}
