package assure

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingAuthzRecordVersion1 = 1

var errPendingAuthzCorrupt = errors.New("pending authorization record corrupt")

// consumePendingScript deletes the record in the same step that reads it,
// so two racing consumers can never both replay the redirect.
const consumePendingScript = `
local value = redis.call("GET", KEYS[1])
if value then
  redis.call("DEL", KEYS[1])
end
return value
`

var consumePendingLua = redis.NewScript(consumePendingScript)

// pendingAuthorizationStore persists in-flight federated authorization
// requests keyed by an opaque request id. Records outlive browser
// sessions; expiration is checked on read rather than swept.
type pendingAuthorizationStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func newPendingAuthorizationStore(redisClient *redis.Client, cfg PendingAuthzConfig) *pendingAuthorizationStore {
	return &pendingAuthorizationStore{
		redis:  redisClient,
		prefix: cfg.RedisPrefix,
		ttl:    cfg.TTL,
	}
}

func (s *pendingAuthorizationStore) key(requestID string) string {
	return s.prefix + ":" + requestID
}

// Create persists params and returns the opaque request id the relying
// party flow round-trips through the sign-in page.
func (s *pendingAuthorizationStore) Create(
	ctx context.Context,
	params AuthorizationParams,
	now time.Time,
) (string, error) {
	if params.RedirectURI == "" || params.ClientID == "" {
		return "", ErrInvalidAuthorizationParams
	}

	requestID := uuid.NewString()
	record := &PendingAuthorization{
		RequestID:    requestID,
		ClientID:     params.ClientID,
		RedirectURI:  params.RedirectURI,
		ResponseType: params.ResponseType,
		Scope:        params.Scope,
		State:        params.State,
		Nonce:        params.Nonce,
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(s.ttl).Unix(),
	}

	encoded, err := encodePendingAuthorization(record)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, s.key(requestID), encoded, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthorizationUnavailable, err)
	}

	return requestID, nil
}

// Get returns the pending authorization for requestID, or nil when it is
// absent, consumed, or expired. Expired records are deleted on read.
func (s *pendingAuthorizationStore) Get(
	ctx context.Context,
	requestID string,
	now time.Time,
) (*PendingAuthorization, error) {
	if requestID == "" {
		return nil, nil
	}

	data, err := s.redis.Get(ctx, s.key(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthorizationUnavailable, err)
	}

	record, err := decodePendingAuthorization(requestID, data)
	if err != nil {
		return nil, err
	}
	if now.Unix() >= record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(requestID)).Result()
		return nil, nil
	}

	return record, nil
}

// Consume atomically reads and destroys the pending authorization. A
// consumed or expired id yields nil: the original redirect can never be
// replayed.
func (s *pendingAuthorizationStore) Consume(
	ctx context.Context,
	requestID string,
	now time.Time,
) (*PendingAuthorization, error) {
	if requestID == "" {
		return nil, nil
	}

	value, err := consumePendingLua.Run(ctx, s.redis, []string{s.key(requestID)}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthorizationUnavailable, err)
	}

	raw, ok := value.(string)
	if !ok {
		return nil, nil
	}

	record, err := decodePendingAuthorization(requestID, []byte(raw))
	if err != nil {
		return nil, err
	}
	if now.Unix() >= record.ExpiresAt {
		return nil, nil
	}

	return record, nil
}

func encodePendingAuthorization(r *PendingAuthorization) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(pendingAuthzRecordVersion1)

	fields := []string{r.ClientID, r.RedirectURI, r.ResponseType, r.Scope, r.State, r.Nonce}
	for _, field := range fields {
		if len(field) > 65535 {
			return nil, errors.New("pending authorization field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodePendingAuthorization(requestID string, data []byte) (*PendingAuthorization, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errPendingAuthzCorrupt
	}
	if version != pendingAuthzRecordVersion1 {
		return nil, errPendingAuthzCorrupt
	}

	record := &PendingAuthorization{RequestID: requestID}
	fields := []*string{
		&record.ClientID, &record.RedirectURI, &record.ResponseType,
		&record.Scope, &record.State, &record.Nonce,
	}
	for _, field := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, errPendingAuthzCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, errPendingAuthzCorrupt
		}
		*field = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, errPendingAuthzCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, errPendingAuthzCorrupt
	}

	return record, nil
}
