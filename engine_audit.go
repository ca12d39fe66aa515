package assure

import (
	"context"
	"time"
)

const (
	auditEventSessionCreated            = "session_created"
	auditEventSessionCreateFailed       = "session_create_failed"
	auditEventSessionEnded              = "session_ended"
	auditEventOTPRequired               = "otp_required"
	auditEventOTPSkipped                = "otp_skipped_trusted_device"
	auditEventOTPConfirmed              = "otp_confirmed"
	auditEventOTPFailed                 = "otp_failed"
	auditEventElevatedTrustedDevice     = "elevated_trusted_device"
	auditEventTrustCheckFailed          = "trust_check_failed"
	auditEventRememberIssued            = "remember_device_issued"
	auditEventRememberIssueFailed       = "remember_device_issue_failed"
	auditEventRememberInvalidated       = "remember_device_invalidated"
	auditEventRememberInvalidateFailed  = "remember_device_invalidate_failed"
	auditEventDeviceTouchFailed         = "device_touch_failed"
	auditEventAuthorizationCreated      = "authorization_created"
	auditEventAuthorizationCreateFailed = "authorization_create_failed"
	auditEventAuthorizationResumed      = "authorization_resumed"
	auditEventAuthorizationResumeFailed = "authorization_resume_failed"
	auditEventAuthorizationMissed       = "authorization_missed"
)

// emitAudit builds and dispatches one audit event. metaFn is evaluated
// only when a dispatcher is configured, so hot paths pay nothing for
// metadata when auditing is off.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, sessionID string,
	failure error,
	metaFn func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}

	e.audit.Emit(ctx, event)
}
