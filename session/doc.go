// Package session implements the ephemeral authentication session records
// of the assurance core: sid → (user, authentication level, expiry), with
// a compact versioned binary encoding and a Redis-backed store.
//
// Sessions are deliberately decoupled from pending authorization requests:
// destroying a session never touches pending authorization state, which
// lives under its own key prefix with its own, longer, TTL.
package session
