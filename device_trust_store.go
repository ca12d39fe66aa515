package assure

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/assurekit/assure/internal"
)

const (
	deviceRecordVersion1 = 1
	tokenRecordVersion1  = 1
)

var errTrustRecordCorrupt = errors.New("device trust record corrupt")

type rememberTokenRecord struct {
	UserID    string
	DeviceID  string
	CreatedAt int64
}

// deviceTrustStore persists per-user device rows and remembered-device
// token records. Tokens are stored under their SHA-256 hash; the opaque
// client value never touches Redis.
type deviceTrustStore struct {
	redis  *redis.Client
	prefix string
}

func newDeviceTrustStore(redisClient *redis.Client, cfg DeviceTrustConfig) *deviceTrustStore {
	return &deviceTrustStore{redis: redisClient, prefix: cfg.RedisPrefix}
}

func (s *deviceTrustStore) deviceKey(userID string, fpHash [32]byte) string {
	return s.prefix + ":d:" + userID + ":" + base64.RawURLEncoding.EncodeToString(fpHash[:])
}

func (s *deviceTrustStore) tokenKey(tokenHash [32]byte) string {
	return s.prefix + ":t:" + base64.RawURLEncoding.EncodeToString(tokenHash[:])
}

func (s *deviceTrustStore) userIndexKey(userID string) string {
	return s.prefix + ":u:" + userID
}

func (s *deviceTrustStore) currentTokenKey(userID, deviceID string) string {
	return s.prefix + ":c:" + userID + ":" + deviceID
}

// RegisterOrTouch finds or creates the device row for (userID,
// fingerprint) and stamps last_ip and last_used_at. This is the only path
// that creates device rows.
func (s *deviceTrustStore) RegisterOrTouch(
	ctx context.Context,
	userID, fingerprint, ip string,
	now time.Time,
) (Device, error) {
	key := s.deviceKey(userID, internal.HashBindingValue(fingerprint))

	device := Device{
		UserID:     userID,
		LastIP:     ip,
		LastUsedAt: now.Unix(),
	}

	data, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		existing, decodeErr := decodeDeviceRecord(data)
		if decodeErr != nil {
			return Device{}, decodeErr
		}
		device.DeviceID = existing.DeviceID
	case errors.Is(err, redis.Nil):
		device.DeviceID = uuid.NewString()
	default:
		return Device{}, fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	encoded, err := encodeDeviceRecord(&device)
	if err != nil {
		return Device{}, err
	}
	if err := s.redis.Set(ctx, key, encoded, 0).Err(); err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	return device, nil
}

// IssueToken mints a fresh remembered-device token for (userID, deviceID).
// A prior token for the same pair is deleted, never extended: checking
// "remember this device" always restarts the trust window from now.
func (s *deviceTrustStore) IssueToken(
	ctx context.Context,
	userID, deviceID string,
	now time.Time,
	ttl time.Duration,
) (string, error) {
	secret, err := internal.NewRememberSecret()
	if err != nil {
		return "", err
	}
	tokenHash := internal.HashRememberSecret(secret)
	hashStr := base64.RawURLEncoding.EncodeToString(tokenHash[:])

	record := &rememberTokenRecord{
		UserID:    userID,
		DeviceID:  deviceID,
		CreatedAt: now.Unix(),
	}
	encoded, err := encodeTokenRecord(record)
	if err != nil {
		return "", err
	}

	currentKey := s.currentTokenKey(userID, deviceID)
	indexKey := s.userIndexKey(userID)

	prior, err := s.redis.Get(ctx, currentKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prior != "" {
			pipe.Del(ctx, s.prefix+":t:"+prior)
			pipe.SRem(ctx, indexKey, prior)
		}
		pipe.Set(ctx, s.tokenKey(tokenHash), encoded, ttl)
		pipe.SAdd(ctx, indexKey, hashStr)
		pipe.Set(ctx, currentKey, hashStr, ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	return internal.EncodeRememberToken(secret), nil
}

// IsTrusted reports whether token grants remembered-device trust for
// userID within window. The lookup performs the same hash and compare work
// whether or not the token exists, so response timing does not reveal
// token validity. Backend failure is an error, never a trust grant.
func (s *deviceTrustStore) IsTrusted(
	ctx context.Context,
	userID, token string,
	now time.Time,
	window time.Duration,
) (bool, error) {
	if window <= 0 {
		return false, nil
	}

	presentedUser := internal.HashBindingValue(userID)

	secret, err := internal.DecodeRememberToken(token)
	if err != nil {
		// Malformed token: burn the same compare as the happy path.
		var zero [32]byte
		subtle.ConstantTimeCompare(presentedUser[:], zero[:])
		return false, nil
	}
	tokenHash := internal.HashRememberSecret(secret)

	data, err := s.redis.Get(ctx, s.tokenKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			var zero [32]byte
			subtle.ConstantTimeCompare(presentedUser[:], zero[:])
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	record, err := decodeTokenRecord(data)
	if err != nil {
		return false, err
	}

	recordUser := internal.HashBindingValue(record.UserID)
	if subtle.ConstantTimeCompare(presentedUser[:], recordUser[:]) != 1 {
		return false, nil
	}

	age := now.Sub(time.Unix(record.CreatedAt, 0))
	if age < 0 || age >= window {
		return false, nil
	}

	return true, nil
}

// InvalidateAll synchronously deletes every remembered-device token for
// userID. Stale current-token pointers are left behind; they reference
// deleted records and are overwritten on the next issue.
func (s *deviceTrustStore) InvalidateAll(ctx context.Context, userID string) error {
	indexKey := s.userIndexKey(userID)

	hashes, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range hashes {
			pipe.Del(ctx, s.prefix+":t:"+h)
		}
		pipe.Del(ctx, indexKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrustUnavailable, err)
	}

	return nil
}

func encodeDeviceRecord(d *Device) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(deviceRecordVersion1)

	if len(d.DeviceID) > 255 || len(d.UserID) > 255 || len(d.LastIP) > 255 {
		return nil, errors.New("device record field too long")
	}
	buf.WriteByte(byte(len(d.DeviceID)))
	buf.WriteString(d.DeviceID)
	buf.WriteByte(byte(len(d.UserID)))
	buf.WriteString(d.UserID)
	buf.WriteByte(byte(len(d.LastIP)))
	buf.WriteString(d.LastIP)

	if err := binary.Write(&buf, binary.BigEndian, d.LastUsedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeDeviceRecord(data []byte) (*Device, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errTrustRecordCorrupt
	}
	if version != deviceRecordVersion1 {
		return nil, errTrustRecordCorrupt
	}

	device := &Device{}
	for _, field := range []*string{&device.DeviceID, &device.UserID, &device.LastIP} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, errTrustRecordCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, errTrustRecordCorrupt
		}
		*field = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &device.LastUsedAt); err != nil {
		return nil, errTrustRecordCorrupt
	}

	return device, nil
}

func encodeTokenRecord(r *rememberTokenRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tokenRecordVersion1)

	if len(r.UserID) > 255 || len(r.DeviceID) > 255 {
		return nil, errors.New("token record field too long")
	}
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)
	buf.WriteByte(byte(len(r.DeviceID)))
	buf.WriteString(r.DeviceID)

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (*rememberTokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errTrustRecordCorrupt
	}
	if version != tokenRecordVersion1 {
		return nil, errTrustRecordCorrupt
	}

	record := &rememberTokenRecord{}
	for _, field := range []*string{&record.UserID, &record.DeviceID} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, errTrustRecordCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, errTrustRecordCorrupt
		}
		*field = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, errTrustRecordCorrupt
	}

	return record, nil
}
