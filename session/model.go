package session

// Session is the ephemeral record of an authentication flow. Level holds
// the current authentication state machine value; PendingRequestID binds
// the session to an in-flight federated authorization, when one exists.
//
// Session instances are value carriers; the store persists and retrieves
// them without retaining references.
type Session struct {
	SessionID        string
	UserID           string
	Level            uint8
	PendingRequestID string

	CreatedAt int64
	ExpiresAt int64
}
