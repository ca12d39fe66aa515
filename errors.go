package assure

import "errors"

var (
	// ErrEngineNotReady is an exported constant used by the assurance engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrTrustUnavailable is returned when the device trust backend cannot
	// be reached. The engine fails closed: the caller must treat the device
	// as untrusted and surface a generic authentication error.
	ErrTrustUnavailable = errors.New("device trust backend unavailable")
	// ErrAuthorizationUnavailable is returned when the pending authorization
	// backend cannot be reached.
	ErrAuthorizationUnavailable = errors.New("pending authorization backend unavailable")
	// ErrSessionUnavailable is returned when the session backend cannot be
	// reached.
	ErrSessionUnavailable = errors.New("session backend unavailable")
	// ErrSessionNotFound is an exported constant used by the assurance engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrOTPRequired is returned by elevation paths when no valid
	// remembered-device trust exists for the presented token.
	ErrOTPRequired = errors.New("otp required")
	// ErrOTPInvalid is returned by [Engine.ConfirmOTP] on a failed
	// verification signal. The session stays at PasswordVerified.
	ErrOTPInvalid = errors.New("otp verification failed")
	// ErrNotFullyAuthenticated is returned when an operation requires a
	// fully authenticated session.
	ErrNotFullyAuthenticated = errors.New("session not fully authenticated")
	// ErrUnknownUser is an exported constant used by the assurance engine.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidAuthorizationParams is an exported constant used by the
	// assurance engine.
	ErrInvalidAuthorizationParams = errors.New("invalid authorization params")
)
