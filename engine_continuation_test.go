package assure

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResumeAuthorizationViaSessionBinding(t *testing.T) {
	engine, rdb, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.BindAuthorization(ctx, sess.SessionID, requestID); err != nil {
		t.Fatalf("BindAuthorization failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, sess.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, sess.SessionID, "")
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "http://localhost:7654/auth/result" {
		t.Fatalf("expected the relying party redirect, got %q", redirect)
	}

	if exists := rdb.Exists(ctx, "apa:"+requestID).Val(); exists != 0 {
		t.Fatal("expected the pending authorization to be consumed")
	}
}

// A user idles on the sign-in page until their session is evicted. The
// request id round-tripped through the page still routes them to the
// relying party once they re-authenticate under a brand new session.
func TestResumeAuthorizationSurvivesSessionEviction(t *testing.T) {
	engine, _, clock, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	first, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.BindAuthorization(ctx, first.SessionID, requestID); err != nil {
		t.Fatalf("BindAuthorization failed: %v", err)
	}

	// Idle past the session timeout but inside the authorization TTL.
	clock.Advance(31 * time.Minute)
	if _, err := engine.Session(ctx, first.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected the idle session to be gone, got %v", err)
	}

	// The pending authorization outlives the session.
	pending, err := engine.PendingAuthorization(ctx, requestID)
	if err != nil {
		t.Fatalf("PendingAuthorization failed: %v", err)
	}
	if pending == nil {
		t.Fatal("expected the authorization to survive session eviction")
	}

	second, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, second.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, second.SessionID, requestID)
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "http://localhost:7654/auth/result" {
		t.Fatalf("expected the relying party redirect, got %q", redirect)
	}
}

func TestResumeAuthorizationDefaultsWithoutPendingRequest(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, sess.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, sess.SessionID, "")
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "/account" {
		t.Fatalf("expected the default destination, got %q", redirect)
	}
}

func TestResumeAuthorizationUnknownIDFallsBack(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, sess.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, sess.SessionID, "no-such-id")
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "/account" {
		t.Fatalf("expected the default destination, got %q", redirect)
	}
}

func TestResumeAuthorizationExpiredIDFallsBack(t *testing.T) {
	engine, _, clock, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	// Past the authorization TTL entirely.
	clock.Advance(46 * time.Minute)

	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, sess.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, sess.SessionID, requestID)
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "/account" {
		t.Fatalf("expected the default destination, got %q", redirect)
	}
}

// A consumed request id never causes a second redirect to the relying
// party, no matter how it is presented again.
func TestResumeAuthorizationNeverReplays(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.ConfirmOTP(ctx, sess.SessionID, true); err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}

	redirect, err := engine.ResumeAuthorization(ctx, sess.SessionID, requestID)
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if redirect != "http://localhost:7654/auth/result" {
		t.Fatalf("expected the relying party redirect, got %q", redirect)
	}

	replay, err := engine.ResumeAuthorization(ctx, sess.SessionID, requestID)
	if err != nil {
		t.Fatalf("ResumeAuthorization failed: %v", err)
	}
	if replay != "/account" {
		t.Fatalf("expected replay to fall back to the default, got %q", replay)
	}
}

func TestResumeAuthorizationRequiresFullAuthentication(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}

	if _, err := engine.ResumeAuthorization(ctx, sess.SessionID, requestID); !errors.Is(err, ErrNotFullyAuthenticated) {
		t.Fatalf("expected ErrNotFullyAuthenticated, got %v", err)
	}

	// The failed attempt must not have consumed the authorization.
	pending, err := engine.PendingAuthorization(ctx, requestID)
	if err != nil {
		t.Fatalf("PendingAuthorization failed: %v", err)
	}
	if pending == nil {
		t.Fatal("expected the authorization to remain pending")
	}
}

// Explicit sign-out destroys the session but never a still-valid pending
// authorization.
func TestEndSessionPreservesPendingAuthorization(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	requestID, err := engine.CreateAuthorization(ctx, testAuthzParams())
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if err := engine.BindAuthorization(ctx, sess.SessionID, requestID); err != nil {
		t.Fatalf("BindAuthorization failed: %v", err)
	}
	if err := engine.EndSession(ctx, sess.SessionID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	pending, err := engine.PendingAuthorization(ctx, requestID)
	if err != nil {
		t.Fatalf("PendingAuthorization failed: %v", err)
	}
	if pending == nil {
		t.Fatal("session destruction must not destroy the pending authorization")
	}
}

func TestBindAuthorizationIgnoresUnknownID(t *testing.T) {
	engine, _, _, done := newDecisionEngine(t, testConfig(), nil)
	defer done()

	ctx := context.Background()
	sess, err := engine.BeginSession(ctx, "u1")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}

	if err := engine.BindAuthorization(ctx, sess.SessionID, "no-such-id"); err != nil {
		t.Fatalf("BindAuthorization failed: %v", err)
	}

	got, err := engine.Session(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.PendingRequestID != "" {
		t.Fatalf("expected no binding, got %q", got.PendingRequestID)
	}
}
