package assure

import (
	"context"
)

// Decide evaluates the second-factor requirement for userID at AAL1, the
// assurance level of a standard federated sign-in.
func (e *Engine) Decide(ctx context.Context, userID, presentedToken string) (Decision, error) {
	return e.DecideForLevel(ctx, userID, presentedToken, AAL1)
}

// DecideForLevel evaluates the second-factor requirement for userID at
// the given assurance level. The decision is computed from scratch on
// every call: trust is read from the store against the level's configured
// window and is never cached by the engine.
//
// A backend failure is returned as an error; the caller must treat it as
// a generic authentication failure, never as a satisfied second factor.
func (e *Engine) DecideForLevel(
	ctx context.Context,
	userID, presentedToken string,
	level AssuranceLevel,
) (Decision, error) {
	if e == nil {
		return Decision{}, ErrEngineNotReady
	}

	if presentedToken != "" {
		trusted, err := e.deviceTrust.IsTrusted(ctx, userID, presentedToken, e.now(), e.config.rememberTTL(level))
		if err != nil {
			e.metricInc(MetricTrustBackendError)
			e.emitAudit(ctx, auditEventTrustCheckFailed, false, userID, "", err, nil)
			return Decision{}, err
		}
		if trusted {
			e.metricInc(MetricOTPSkippedTrustedDevice)
			e.emitAudit(ctx, auditEventOTPSkipped, true, userID, "", nil, nil)
			return Decision{RequireOTP: false}, nil
		}
	}

	delivery, err := e.users.OTPDeliveryPreference(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if delivery == "" {
		delivery = DeliverySMS
	}

	e.metricInc(MetricOTPRequired)
	e.emitAudit(ctx, auditEventOTPRequired, true, userID, "", nil, func() map[string]string {
		return map[string]string{"delivery": string(delivery)}
	})

	return Decision{RequireOTP: true, Delivery: delivery}, nil
}

// ElevateWithTrustedDevice moves a PasswordVerified session to
// FullyAuthenticated when presentedToken carries valid remembered-device
// trust for the session's user. It is one of exactly two elevation paths;
// the other is [Engine.ConfirmOTP].
func (e *Engine) ElevateWithTrustedDevice(ctx context.Context, sessionID, presentedToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sess, err := e.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if AuthenticationLevel(sess.Level) == FullyAuthenticated {
		return nil
	}

	trusted, err := e.deviceTrust.IsTrusted(ctx, sess.UserID, presentedToken, e.now(), e.config.rememberTTL(AAL1))
	if err != nil {
		e.metricInc(MetricTrustBackendError)
		e.emitAudit(ctx, auditEventTrustCheckFailed, false, sess.UserID, sessionID, err, nil)
		return err
	}
	if !trusted {
		return ErrOTPRequired
	}

	sess.Level = uint8(FullyAuthenticated)
	if err := e.saveSession(ctx, sess); err != nil {
		return err
	}

	e.touchDevice(ctx, sess.UserID)
	e.metricInc(MetricElevatedTrustedDevice)
	e.emitAudit(ctx, auditEventElevatedTrustedDevice, true, sess.UserID, sessionID, nil, nil)

	return nil
}

// ConfirmOTP applies the external OTP collaborator's verification signal
// to the session. A failed verification keeps the session at its current
// level and re-offers the challenge; it never demotes a session that was
// elevated through valid device trust.
func (e *Engine) ConfirmOTP(ctx context.Context, sessionID string, verified bool) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sess, err := e.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	if !verified {
		e.metricInc(MetricOTPFailed)
		e.emitAudit(ctx, auditEventOTPFailed, false, sess.UserID, sessionID, ErrOTPInvalid, nil)
		return ErrOTPInvalid
	}

	if AuthenticationLevel(sess.Level) == FullyAuthenticated {
		return nil
	}

	sess.Level = uint8(FullyAuthenticated)
	if err := e.saveSession(ctx, sess); err != nil {
		return err
	}

	e.touchDevice(ctx, sess.UserID)
	e.metricInc(MetricOTPConfirmed)
	e.emitAudit(ctx, auditEventOTPConfirmed, true, sess.UserID, sessionID, nil, nil)

	return nil
}
