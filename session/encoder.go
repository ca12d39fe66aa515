package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionCurrent = 1

// Encode serializes s into the versioned binary record stored in Redis.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if len(s.PendingRequestID) > 255 {
		return nil, errors.New("pendingRequestID too long")
	}
	buf.WriteByte(byte(len(s.PendingRequestID)))
	buf.WriteString(s.PendingRequestID)

	buf.WriteByte(s.Level)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode reverses Encode. The session id is keyed externally and must be
// supplied by the caller.
func Decode(sessionID string, data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSessionCorrupt
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrSessionCorrupt
	}

	s := &Session{SessionID: sessionID}

	for _, field := range []*string{&s.UserID, &s.PendingRequestID} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, ErrSessionCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, ErrSessionCorrupt
		}
		*field = string(raw)
	}

	level, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSessionCorrupt
	}
	s.Level = level

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrSessionCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrSessionCorrupt
	}

	return s, nil
}
