package transport

import "errors"

var (
	// ErrMalformedFrame is returned when a wire frame cannot be parsed:
	// too short, declared length overruns the buffer, or an unknown type.
	ErrMalformedFrame = errors.New("transport: malformed frame")
	// ErrBadMagicOrVersion is returned when MAGIC or VERSION does not match
	// the locally configured deployment parameters.
	ErrBadMagicOrVersion = errors.New("transport: bad magic or version")

	// ErrInvalidHashOrSig is returned when a Connect or Ack trailer
	// signature fails verification.
	ErrInvalidHashOrSig = errors.New("transport: invalid hash or signature")
	// ErrInvalidChallenge is returned when an Ack's challenge does not equal
	// SHA-256 of the local ephemeral public key.
	ErrInvalidChallenge = errors.New("transport: invalid challenge")
	// ErrUnexpectedMessage is returned for a frame type not valid in the
	// current state.
	ErrUnexpectedMessage = errors.New("transport: unexpected message for state")
	// ErrUnexpectedConnectMsg is returned when a Connect frame arrives in a
	// state that cannot accept one.
	ErrUnexpectedConnectMsg = errors.New("transport: unexpected connect message")
	// ErrUnexpectedAckMsg is returned when a second Ack arrives before the
	// first buffered early Ack has been consumed.
	ErrUnexpectedAckMsg = errors.New("transport: unexpected ack message")
	// ErrUnexpectedRemoteSigPubKey is returned when a Connect's signing
	// public key does not match a previously configured expected peer key.
	ErrUnexpectedRemoteSigPubKey = errors.New("transport: unexpected remote signing public key")
	// ErrNegotiationTimeout is returned when the handshake has not reached
	// Established within MaxRegistrationDelay of Start.
	ErrNegotiationTimeout = errors.New("transport: negotiation timeout")
	// ErrNegotiationMustHaveBeenSuccessful is returned by Session.Encrypt /
	// Decrypt when invoked before the handshake reached Established.
	ErrNegotiationMustHaveBeenSuccessful = errors.New("transport: negotiation must have been successful")

	// ErrCloneRefused is returned by TryClone outside the Established state.
	ErrCloneRefused = errors.New("transport: clone refused outside established state")
	// ErrConfigAfterClone is returned when a configuration change is
	// attempted on a session that has already been cloned.
	ErrConfigAfterClone = errors.New("transport: configuration change forbidden after clone")
	// ErrChannelClosed is returned by any operation on a Close'd or Fail'd
	// channel; a new channel must be created instead.
	ErrChannelClosed = errors.New("transport: channel closed")

	// ErrKeyRotationNeeded signals Session.NeedsRotation() was true at the
	// point Encrypt was attempted; callers should Rotate() first.
	ErrKeyRotationNeeded = errors.New("transport: key rotation needed")
	// ErrAuthFailed is returned when AEAD decryption fails authentication.
	ErrAuthFailed = errors.New("transport: authentication failed")
)
