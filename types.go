package assure

import "context"

// AssuranceLevel identifies the strength of an authentication event.
// Remembered-device TTLs are keyed by assurance level so that higher
// assurance contexts can carry a shorter trust window.
type AssuranceLevel uint8

const (
	// AAL1 is single-factor-equivalent assurance.
	AAL1 AssuranceLevel = 1
	// AAL2 is multi-factor assurance.
	AAL2 AssuranceLevel = 2
	// AAL3 is hardware-backed multi-factor assurance.
	AAL3 AssuranceLevel = 3
)

// AuthenticationLevel is the per-session authentication state machine.
// The only transitions out of PasswordVerified are via a valid remembered
// device or a successful OTP confirmation.
type AuthenticationLevel uint8

const (
	// Unauthenticated is an exported constant used by the assurance engine.
	Unauthenticated AuthenticationLevel = iota
	// PasswordVerified means the credential collaborator accepted the
	// password but no second factor has been satisfied yet.
	PasswordVerified
	// FullyAuthenticated means second-factor assurance has been met.
	FullyAuthenticated
)

// OTPDelivery names the out-of-band channel an OTP challenge should use.
type OTPDelivery string

const (
	// DeliverySMS is an exported constant used by the assurance engine.
	DeliverySMS OTPDelivery = "sms"
	// DeliveryVoice is an exported constant used by the assurance engine.
	DeliveryVoice OTPDelivery = "voice"
)

// Decision is returned by [Engine.Decide]. When RequireOTP is set the
// caller must route the user to an OTP challenge using Delivery; otherwise
// the presented remembered-device token satisfied the second factor.
type Decision struct {
	RequireOTP bool
	Delivery   OTPDelivery
}

// Device is a browser/client instance known to the trust store. Devices
// are created only through remember-device registration and belong to
// exactly one user at a time.
type Device struct {
	DeviceID   string
	UserID     string
	LastIP     string
	LastUsedAt int64
}

// AuthorizationParams carries the relying-party request that opened a
// federated sign-in. All fields are opaque to the decision core except
// RedirectURI, which feeds the final redirect and the CSP form-action
// directive.
type AuthorizationParams struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
	Nonce        string
}

// PendingAuthorization is a stored in-flight federated sign-in. Its
// lifetime is independent of any browser session and strictly longer than
// the session idle timeout, so it can be recovered after session eviction.
type PendingAuthorization struct {
	RequestID    string
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
	Nonce        string
	CreatedAt    int64
	ExpiresAt    int64
}

// UserDirectory is the interface callers implement to expose the per-user
// OTP delivery preference. The decision core references users by id only;
// account storage is an external collaborator.
type UserDirectory interface {
	OTPDeliveryPreference(ctx context.Context, userID string) (OTPDelivery, error)
}
