package transport

import (
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Key-rotation thresholds. A session past any of these should Rotate()
// before its next Encrypt call.
const (
	MaxMessagesPerKey = 1 << 32
	MaxBytesPerKey    = 1 << 40
	MaxKeyAge         = 10 * time.Minute
)

// Session is an established AEAD-framed secure channel: once a handshake
// reaches Established, both sides hold a Session derived from the same
// X25519 shared secret, each with directional send/recv keys.
type Session struct {
	mu sync.Mutex

	magic   uint32
	version uint16

	sendKey [32]byte
	recvKey [32]byte

	sendCipher cipher.AEAD
	recvCipher cipher.AEAD

	sendNonce uint64
	recvNonce uint64

	msgCount  uint64
	byteCount uint64
	keyTime   time.Time

	maxMessages uint64
	maxBytes    uint64
	maxAge      time.Duration

	established bool
	cloned      bool
	closed      bool
}

// newSession derives directional keys from sharedSecret via HKDF and
// builds the ChaCha20-Poly1305 AEAD ciphers. isInitiator picks which
// derived half is used for sending vs receiving so both peers agree.
func newSession(magic uint32, version uint16, sharedSecret [32]byte, isInitiator bool) (*Session, error) {
	kdf := hkdf.New(sha256.New, sharedSecret[:], nil, []byte("dunicore-transport-v1"))

	var a, b [32]byte
	if _, err := io.ReadFull(kdf, a[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(kdf, b[:]); err != nil {
		return nil, err
	}

	s := &Session{
		magic: magic, version: version,
		keyTime:     time.Now(),
		maxMessages: MaxMessagesPerKey,
		maxBytes:    MaxBytesPerKey,
		maxAge:      MaxKeyAge,
		established: true,
	}
	if isInitiator {
		s.sendKey, s.recvKey = a, b
	} else {
		s.recvKey, s.sendKey = a, b
	}

	var err error
	s.sendCipher, err = chacha20poly1305.New(s.sendKey[:])
	if err != nil {
		return nil, err
	}
	s.recvCipher, err = chacha20poly1305.New(s.recvKey[:])
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Encrypt frames plaintext as a single UserMsg: the AEAD record covers
// (plaintext || SHA-256(plaintext)), sealed under a strictly incrementing
// per-direction nonce counter, and wraps the result in the wire frame.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrChannelClosed
	}
	if !s.established {
		return nil, ErrNegotiationMustHaveBeenSuccessful
	}
	if s.needsRotationLocked() {
		return nil, ErrKeyRotationNeeded
	}

	digest := sha256.Sum256(plaintext)
	encapsulated := append(append([]byte{}, plaintext...), digest[:]...)

	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], s.sendNonce)
	s.sendNonce++

	ciphertext := s.sendCipher.Seal(nil, nonce, encapsulated, nil)
	s.msgCount++
	s.byteCount += uint64(len(plaintext))

	trailer := UserMsgTrailer(s.magic, s.version, ciphertext)
	return EncodeFrame(s.magic, s.version, TypeUserMsg, ciphertext, trailer), nil
}

// Decrypt validates and opens a UserMsg frame previously produced by the
// peer's Encrypt, returning the original plaintext.
func (s *Session) Decrypt(frame Frame) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrChannelClosed
	}
	if !s.established {
		return nil, ErrNegotiationMustHaveBeenSuccessful
	}
	if frame.Type != TypeUserMsg {
		return nil, ErrUnexpectedMessage
	}

	wantTrailer := UserMsgTrailer(s.magic, s.version, frame.Payload)
	if !hmacEqual(wantTrailer, frame.Trailer) {
		return nil, ErrInvalidHashOrSig
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], s.recvNonce)
	s.recvNonce++

	encapsulated, err := s.recvCipher.Open(nil, nonce, frame.Payload, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	if len(encapsulated) < sha256.Size {
		return nil, ErrMalformedFrame
	}
	plaintext := encapsulated[:len(encapsulated)-sha256.Size]
	digest := encapsulated[len(encapsulated)-sha256.Size:]
	want := sha256.Sum256(plaintext)
	if !hmacEqual(want[:], digest) {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// NeedsRotation reports whether this session has crossed a key-rotation
// threshold (message count, byte count, or key age).
func (s *Session) NeedsRotation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRotationLocked()
}

func (s *Session) needsRotationLocked() bool {
	return s.msgCount >= s.maxMessages ||
		s.byteCount >= s.maxBytes ||
		time.Since(s.keyTime) >= s.maxAge
}

// ConfigureRotation overrides the session's key-rotation thresholds.
// Configuration changes are forbidden once the session has been cloned.
func (s *Session) ConfigureRotation(maxMessages, maxBytes uint64, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cloned {
		return ErrConfigAfterClone
	}
	s.maxMessages, s.maxBytes, s.maxAge = maxMessages, maxBytes, maxAge
	return nil
}

// Close terminates the session. A closed session cannot be reopened;
// callers create a new channel instead.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Rotate HKDF-ratchets both directional keys in place and resets the
// rotation counters and nonces. The handshake protocol itself never calls
// this automatically; callers decide when to ratchet.
func (s *Session) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newSend, newRecv [32]byte
	sendKDF := hkdf.New(sha256.New, s.sendKey[:], nil, []byte("dunicore-transport-ratchet"))
	if _, err := io.ReadFull(sendKDF, newSend[:]); err != nil {
		return err
	}
	recvKDF := hkdf.New(sha256.New, s.recvKey[:], nil, []byte("dunicore-transport-ratchet"))
	if _, err := io.ReadFull(recvKDF, newRecv[:]); err != nil {
		return err
	}

	sendCipher, err := chacha20poly1305.New(newSend[:])
	if err != nil {
		return err
	}
	recvCipher, err := chacha20poly1305.New(newRecv[:])
	if err != nil {
		return err
	}

	s.sendKey, s.recvKey = newSend, newRecv
	s.sendCipher, s.recvCipher = sendCipher, recvCipher
	s.msgCount, s.byteCount = 0, 0
	s.sendNonce, s.recvNonce = 0, 0
	s.keyTime = time.Now()
	return nil
}

// TryClone is permitted only once Established; the returned Session shares
// no mutable state with s and subsequent configuration changes on either
// are forbidden.
func (s *Session) TryClone() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.established || s.closed {
		return nil, ErrCloneRefused
	}
	s.cloned = true

	clone := &Session{
		magic: s.magic, version: s.version,
		sendKey: s.sendKey, recvKey: s.recvKey,
		sendCipher: s.sendCipher, recvCipher: s.recvCipher,
		sendNonce: s.sendNonce, recvNonce: s.recvNonce,
		msgCount: s.msgCount, byteCount: s.byteCount, keyTime: s.keyTime,
		maxMessages: s.maxMessages, maxBytes: s.maxBytes, maxAge: s.maxAge,
		established: true, cloned: true,
	}
	return clone, nil
}

func hmacEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
