// Package transport implements the two-peer secure channel: a four-message
// ephemeral-key handshake (Connect/Ack) authenticated by long-term Ed25519
// signatures, followed by AEAD-framed application messages.
package transport

import (
	"crypto/sha256"
	"encoding/binary"
)

// Wire message types (2-byte big-endian).
const (
	TypeUserMsg uint16 = 0x0000
	TypeConnect uint16 = 0x0001
	TypeAck     uint16 = 0x0002
)

const (
	userMsgTrailerLen = 32 // SHA-256 integrity trailer
	sigTrailerLen     = 64 // Ed25519 signature trailer (Connect, Ack)
)

// Frame is a decoded wire frame: MAGIC(4) | VERSION(2) | LEN(8 BE) | TYPE(2)
// | payload | TRAILER.
type Frame struct {
	Magic   uint32
	Version uint16
	Type    uint16
	Payload []byte
	Trailer []byte
}

// frameBeforeTrailer returns the exact byte range that a frame's trailer
// (integrity hash or signature) is computed over.
func frameBeforeTrailer(magic uint32, version uint16, msgType uint16, payload []byte) []byte {
	buf := make([]byte, 4+2+8+2+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], magic)
	binary.BigEndian.PutUint16(buf[4:6], version)
	binary.BigEndian.PutUint64(buf[6:14], uint64(len(payload)))
	binary.BigEndian.PutUint16(buf[14:16], msgType)
	copy(buf[16:], payload)
	return buf
}

// EncodeFrame assembles a complete wire frame from its parts.
func EncodeFrame(magic uint32, version uint16, msgType uint16, payload, trailer []byte) []byte {
	head := frameBeforeTrailer(magic, version, msgType, payload)
	return append(head, trailer...)
}

// UserMsgTrailer computes the SHA-256 integrity trailer for a UserMsg frame.
func UserMsgTrailer(magic uint32, version uint16, payload []byte) []byte {
	sum := sha256.Sum256(frameBeforeTrailer(magic, version, TypeUserMsg, payload))
	return sum[:]
}

// DecodeFrame parses b into a Frame, rejecting a MAGIC/VERSION mismatch and
// any trailer length inconsistent with the frame's declared type.
func DecodeFrame(b []byte, expectMagic uint32, expectVersion uint16) (Frame, error) {
	if len(b) < 16 {
		return Frame{}, ErrMalformedFrame
	}
	magic := binary.BigEndian.Uint32(b[0:4])
	version := binary.BigEndian.Uint16(b[4:6])
	length := binary.BigEndian.Uint64(b[6:14])
	msgType := binary.BigEndian.Uint16(b[14:16])
	if magic != expectMagic || version != expectVersion {
		return Frame{}, ErrBadMagicOrVersion
	}

	rest := b[16:]
	if uint64(len(rest)) < length {
		return Frame{}, ErrMalformedFrame
	}
	payload := rest[:length]
	trailer := rest[length:]

	var wantTrailerLen int
	switch msgType {
	case TypeUserMsg:
		wantTrailerLen = userMsgTrailerLen
	case TypeConnect, TypeAck:
		wantTrailerLen = sigTrailerLen
	default:
		return Frame{}, ErrMalformedFrame
	}
	if len(trailer) != wantTrailerLen {
		return Frame{}, ErrMalformedFrame
	}

	return Frame{Magic: magic, Version: version, Type: msgType, Payload: payload, Trailer: trailer}, nil
}
