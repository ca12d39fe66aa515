package assure

import "context"

// RememberDevice registers (or touches) the device presented on ctx and
// issues a fresh remembered-device token for the session's user. The
// returned value is opaque and unguessable; the caller stores it client
// side, typically as a cookie.
//
// The session must be fully authenticated: a user cannot remember a
// device they have not completed a second factor on. Re-remembering a
// device replaces the prior token, restarting the trust window.
func (e *Engine) RememberDevice(ctx context.Context, sessionID string) (string, error) {
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

	now := e.now()
	device, err := e.deviceTrust.RegisterOrTouch(
		ctx,
		sess.UserID,
		fingerprintFromContext(ctx),
		clientIPFromContext(ctx),
		now,
	)
	if err != nil {
		e.emitAudit(ctx, auditEventRememberIssueFailed, false, sess.UserID, sessionID, err, nil)
		return "", err
	}

	token, err := e.deviceTrust.IssueToken(ctx, sess.UserID, device.DeviceID, now, e.config.maxRememberTTL())
	if err != nil {
		e.emitAudit(ctx, auditEventRememberIssueFailed, false, sess.UserID, sessionID, err, nil)
		return "", err
	}

	e.metricInc(MetricRememberIssued)
	e.emitAudit(ctx, auditEventRememberIssued, true, sess.UserID, sessionID, nil, func() map[string]string {
		return map[string]string{"device_id": device.DeviceID}
	})

	return token, nil
}

// ForgetRememberedDevices synchronously invalidates every outstanding
// remembered-device token for userID. The external account collaborator
// calls this whenever the user's OTP delivery destination changes, so a
// still-open browser cannot ride out the old trust window after the user
// believes they have secured their account.
func (e *Engine) ForgetRememberedDevices(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.deviceTrust.InvalidateAll(ctx, userID); err != nil {
		e.emitAudit(ctx, auditEventRememberInvalidateFailed, false, userID, "", err, nil)
		return err
	}

	e.metricInc(MetricRememberInvalidated)
	e.emitAudit(ctx, auditEventRememberInvalidated, true, userID, "", nil, nil)

	return nil
}
