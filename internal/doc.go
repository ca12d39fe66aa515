// Package internal contains helper utilities that are intentionally
// private to assure: secure random identifier and token generation, and
// binding-value hashing.
//
// # What this package must NOT do
//
//   - Export types that appear in the public assure API.
//   - Be imported by any package outside the assure module.
package internal
