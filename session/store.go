package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant used by the assurance engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionCorrupt is returned when a stored session blob is invalid.
var ErrSessionCorrupt = errors.New("session record corrupt")

// Store persists Session records in Redis under a configurable prefix.
// Reads verify expiry against the supplied clock value so deterministic
// tests never depend on Redis honoring wall-clock TTLs.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore returns a Store over client using prefix for all keys.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Save writes sess with ttl. The Redis TTL is hygiene; authoritative
// expiry is the ExpiresAt field checked on read.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	encoded, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sess.SessionID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the session for sessionID, or nil when absent or expired.
// Expired sessions are deleted on read.
func (s *Store) Get(ctx context.Context, sessionID string, now time.Time) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(sessionID, data)
	if err != nil {
		return nil, err
	}
	if now.Unix() >= sess.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(sessionID)).Result()
		return nil, nil
	}

	return sess, nil
}

// Delete removes the session. Deleting an absent session is not an error;
// the bool reports whether a record existed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
