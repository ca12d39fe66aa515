package assure

import "context"

// CreateAuthorization persists the relying party's in-flight request and
// returns its opaque request id. The id is safe to round-trip through the
// sign-in page as a query parameter; it outlives the browser session by
// construction (store TTL > session idle timeout).
func (e *Engine) CreateAuthorization(ctx context.Context, params AuthorizationParams) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	requestID, err := e.pendingAuthz.Create(ctx, params, e.now())
	if err != nil {
		e.emitAudit(ctx, auditEventAuthorizationCreateFailed, false, "", "", err, nil)
		return "", err
	}

	e.metricInc(MetricAuthorizationCreated)
	e.emitAudit(ctx, auditEventAuthorizationCreated, true, "", "", nil, func() map[string]string {
		return map[string]string{"client_id": params.ClientID, "request_id": requestID}
	})

	return requestID, nil
}

// PendingAuthorization resolves requestID without consuming it. It is the
// read path for per-response concerns such as the CSP form-action
// directive. Absent, consumed, and expired ids all resolve to nil.
func (e *Engine) PendingAuthorization(ctx context.Context, requestID string) (*PendingAuthorization, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.pendingAuthz.Get(ctx, requestID, e.now())
}

// BindAuthorization associates the pending request with the session so
// the normal (uninterrupted) flow can resume it without the client
// carrying the id. The binding is a convenience, not the source of truth:
// recovery after session loss goes through the carried request id.
func (e *Engine) BindAuthorization(ctx context.Context, sessionID, requestID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	pending, err := e.pendingAuthz.Get(ctx, requestID, e.now())
	if err != nil {
		return err
	}
	if pending == nil {
		// Nothing to bind; the flow falls back to the default redirect.
		return nil
	}

	sess, err := e.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.PendingRequestID = requestID
	return e.saveSession(ctx, sess)
}

// ResumeAuthorization computes the post-authentication redirect for a
// fully authenticated session. The pending request is resolved from the
// session binding when present, otherwise from carriedRequestID — the
// parameter round-tripped through the sign-in page, which is what allows
// the flow to survive eviction of the original session. The resolved
// request is consumed; unknown, expired, and replayed ids fall back to
// the default post-login destination.
func (e *Engine) ResumeAuthorization(ctx context.Context, sessionID, carriedRequestID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	sess, err := e.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if AuthenticationLevel(sess.Level) != FullyAuthenticated {
		return "", ErrNotFullyAuthenticated
	}

	requestID := sess.PendingRequestID
	if requestID == "" {
		requestID = carriedRequestID
	}
	if requestID == "" {
		return e.config.PendingAuthz.DefaultRedirectURL, nil
	}

	pending, err := e.pendingAuthz.Consume(ctx, requestID, e.now())
	if err != nil {
		e.emitAudit(ctx, auditEventAuthorizationResumeFailed, false, sess.UserID, sessionID, err, nil)
		return "", err
	}
	if pending == nil {
		e.metricInc(MetricAuthorizationMissed)
		e.emitAudit(ctx, auditEventAuthorizationMissed, true, sess.UserID, sessionID, nil, func() map[string]string {
			return map[string]string{"request_id": requestID}
		})
		return e.config.PendingAuthz.DefaultRedirectURL, nil
	}

	if sess.PendingRequestID != "" {
		sess.PendingRequestID = ""
		if err := e.saveSession(ctx, sess); err != nil {
			return "", err
		}
	}

	e.metricInc(MetricAuthorizationResumed)
	e.emitAudit(ctx, auditEventAuthorizationResumed, true, sess.UserID, sessionID, nil, func() map[string]string {
		return map[string]string{"request_id": requestID, "client_id": pending.ClientID}
	})

	return pending.RedirectURI, nil
}
