// Package assure is the authentication-assurance decision core of an
// identity provider. Given a signing-in user it decides whether a second
// factor must be challenged, manages time-limited remembered-device trust,
// and preserves an in-flight federated authorization request across
// interruptions, including loss of the browser session to an idle timeout.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. All shared state lives in Redis; the Engine itself holds
// no mutable per-request state.
//
// # Architecture boundaries
//
// assure is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Decision, PendingAuthorization, Device). Session encoding
// lives under session/; token generation and hashing under internal/.
//
// # What this package must NOT do
//
//   - Verify passwords or deliver one-time codes. Both are external
//     collaborators; the Engine consumes their outcomes as signals.
//   - Expose Redis clients, store layouts, or record encodings in its
//     public API.
//   - Fail open. Any ambiguous storage state is treated as "untrusted" and
//     "no pending authorization".
package assure
