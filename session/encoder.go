package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	sessionFormatVersionCurrent = 1

	flagLoggedIn byte = 1 << 0
)

// ErrCorrupt is returned by Decode for any blob it cannot parse.
var ErrCorrupt = errors.New("session blob corrupt")

// Encode serializes s. Layout (v1):
//
//	version u8 | flags u8 | level u8 |
//	userID  u8-len | displayName u8-len | email u8-len |
//	token   u16-len (big endian)
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.WriteByte(sessionFormatVersionCurrent)

	var flags byte
	if s.IsLoggedIn {
		flags |= flagLoggedIn
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(s.VerificationLevel))

	if err := writeShort(&buf, s.UserID, "userID"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, s.DisplayName, "displayName"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, s.Email, "email"); err != nil {
		return nil, err
	}

	if len(s.SessionToken) > math.MaxUint16 {
		return nil, errors.New("sessionToken too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.SessionToken))); err != nil {
		return nil, err
	}
	buf.WriteString(s.SessionToken)

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode. Any structural problem, including
// trailing bytes or a Session that fails Validate, returns ErrCorrupt.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrCorrupt
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}
	level, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}

	s := &Session{
		IsLoggedIn:        flags&flagLoggedIn != 0,
		VerificationLevel: VerificationLevel(level),
	}

	if s.UserID, err = readShort(reader); err != nil {
		return nil, ErrCorrupt
	}
	if s.DisplayName, err = readShort(reader); err != nil {
		return nil, ErrCorrupt
	}
	if s.Email, err = readShort(reader); err != nil {
		return nil, ErrCorrupt
	}

	var tokenLen uint16
	if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
		return nil, ErrCorrupt
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, token); err != nil {
		return nil, ErrCorrupt
	}
	s.SessionToken = string(token)

	if reader.Len() != 0 {
		return nil, ErrCorrupt
	}
	if err := s.Validate(); err != nil {
		return nil, ErrCorrupt
	}

	return s, nil
}

func writeShort(buf *bytes.Buffer, v, field string) error {
	if len(v) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)
	return nil
}

func readShort(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return string(out), nil
}
