package transport

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/duniter/dunicore/crypto"
	"github.com/duniter/dunicore/ids"
	"github.com/duniter/dunicore/metrics"
)

// State is a secure channel's handshake state.
type State int

const (
	NeverTry State = iota
	WaitingConnect
	ConnectMessOk
	OkMessOkWaitingAck
	AckMessOk
	Established
	Denial
	Close
	Fail
)

func (s State) String() string {
	switch s {
	case NeverTry:
		return "NeverTry"
	case WaitingConnect:
		return "WaitingConnect"
	case ConnectMessOk:
		return "ConnectMessOk"
	case OkMessOkWaitingAck:
		return "OkMessOkWaitingAck"
	case AckMessOk:
		return "AckMessOk"
	case Established:
		return "Established"
	case Denial:
		return "Denial"
	case Close:
		return "Close"
	case Fail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// MaxRegistrationDelay bounds the handshake negotiation: a handshake that
// has not reached Established within this window of Start fails with
// ErrNegotiationTimeout. It deliberately matches the router's
// registration grace window.
const MaxRegistrationDelay = 20 * time.Second

// Handshake drives one side of the four-message Connect/Ack negotiation.
// Both peers run a symmetric instance.
type Handshake struct {
	magic   uint32
	version uint16

	longTerm          crypto.KeyPair
	expectedPeerSigPK *ids.PubKey

	ephemeral        crypto.EphemeralKeyPair
	peerEphemeralPub [32]byte
	peerSigPK        ids.PubKey

	sharedSecret [32]byte
	isInitiator  bool

	state     State
	startedAt time.Time

	earlyAck *Frame

	metrics *metrics.Metrics
}

// SetMetrics attaches a metrics sink; HandshakesCompleted and
// HandshakesFailed are incremented at the Established/Fail transitions
// below. Optional: a zero-value Handshake with no metrics set behaves
// exactly as before.
func (h *Handshake) SetMetrics(m *metrics.Metrics) *Handshake {
	h.metrics = m
	return h
}

// fail transitions to Fail and records the reason, if a metrics sink is
// attached.
func (h *Handshake) fail(reason string) {
	h.state = Fail
	if h.metrics != nil {
		h.metrics.HandshakesFailed.WithLabelValues(reason).Inc()
	}
}

// establish transitions to Established and records completion.
func (h *Handshake) establish() {
	h.state = Established
	if h.metrics != nil {
		h.metrics.HandshakesCompleted.Inc()
	}
}

// NewHandshake creates a handshake for one side of a connection.
// expectedPeerSigPK, if non-nil, pins the peer's long-term signing key;
// a Connect advertising a different key fails with
// ErrUnexpectedRemoteSigPubKey.
func NewHandshake(magic uint32, version uint16, longTerm crypto.KeyPair, expectedPeerSigPK *ids.PubKey) *Handshake {
	return &Handshake{
		magic:             magic,
		version:           version,
		longTerm:          longTerm,
		expectedPeerSigPK: expectedPeerSigPK,
		state:             NeverTry,
	}
}

// State returns the current handshake state.
func (h *Handshake) State() State { return h.state }

// Start generates the local ephemeral keypair and returns the Connect
// frame to send. It may be called exactly once per Handshake.
func (h *Handshake) Start() ([]byte, error) {
	ek, err := crypto.GenerateEphemeral()
	if err != nil {
		return nil, err
	}
	h.ephemeral = ek
	h.startedAt = time.Now()

	payload := make([]byte, 0, 32+2+32)
	payload = append(payload, h.ephemeral.Pub[:]...)
	var sigAlgo [2]byte
	binary.BigEndian.PutUint16(sigAlgo[:], uint16(ids.AlgoEd25519))
	payload = append(payload, sigAlgo[:]...)
	payload = append(payload, h.longTerm.Pub.Bytes[:]...)

	frameNoTrailer := frameBeforeTrailer(h.magic, h.version, TypeConnect, payload)
	sig, err := h.longTerm.Sign(frameNoTrailer)
	if err != nil {
		return nil, err
	}

	h.state = WaitingConnect
	return EncodeFrame(h.magic, h.version, TypeConnect, payload, sig.Bytes[:]), nil
}

// CheckTimeout returns ErrNegotiationTimeout if the handshake has not
// reached Established within MaxRegistrationDelay of Start.
func (h *Handshake) CheckTimeout(now time.Time) error {
	if h.state == Established || h.state == Fail || h.state == Close {
		return nil
	}
	if now.Sub(h.startedAt) > MaxRegistrationDelay {
		h.fail("timeout")
		return ErrNegotiationTimeout
	}
	return nil
}

// HandleFrame processes one inbound frame and returns bytes to send in
// reply, if any. A non-nil error always leaves the handshake in Fail.
func (h *Handshake) HandleFrame(raw []byte) ([]byte, error) {
	frame, err := DecodeFrame(raw, h.magic, h.version)
	if err != nil {
		h.fail("decode_error")
		return nil, err
	}

	switch frame.Type {
	case TypeConnect:
		return h.handleConnect(frame)
	case TypeAck:
		return h.handleAck(frame)
	default:
		h.fail("unexpected_message")
		return nil, ErrUnexpectedMessage
	}
}

func (h *Handshake) handleConnect(frame Frame) ([]byte, error) {
	if h.state != WaitingConnect {
		h.fail("unexpected_connect")
		return nil, ErrUnexpectedConnectMsg
	}
	if len(frame.Payload) < 32+2+32 {
		h.fail("malformed_frame")
		return nil, ErrMalformedFrame
	}

	var peerEPK [32]byte
	copy(peerEPK[:], frame.Payload[0:32])
	var peerSigPK ids.PubKey
	peerSigPK.Algo = ids.AlgoEd25519
	copy(peerSigPK.Bytes[:], frame.Payload[34:66])

	if h.expectedPeerSigPK != nil && !peerSigPK.Equal(*h.expectedPeerSigPK) {
		h.fail("unexpected_remote_sig_pubkey")
		return nil, ErrUnexpectedRemoteSigPubKey
	}

	frameNoTrailer := frameBeforeTrailer(h.magic, h.version, TypeConnect, frame.Payload)
	sig, err := ids.NewEd25519Signature(frame.Trailer)
	if err != nil {
		h.fail("invalid_hash_or_sig")
		return nil, ErrInvalidHashOrSig
	}
	if err := crypto.Verify(peerSigPK, frameNoTrailer, sig); err != nil {
		h.fail("invalid_hash_or_sig")
		return nil, ErrInvalidHashOrSig
	}

	h.peerEphemeralPub = peerEPK
	h.peerSigPK = peerSigPK

	secret, err := h.ephemeral.Agree(peerEPK)
	if err != nil {
		h.fail("agree_failed")
		return nil, err
	}
	h.sharedSecret = secret
	h.state = ConnectMessOk

	challenge := sha256.Sum256(peerEPK[:])
	frameNoTrailerAck := frameBeforeTrailer(h.magic, h.version, TypeAck, challenge[:])
	ackSig, err := h.longTerm.Sign(frameNoTrailerAck)
	if err != nil {
		h.fail("sign_failed")
		return nil, err
	}
	ackBytes := EncodeFrame(h.magic, h.version, TypeAck, challenge[:], ackSig.Bytes[:])
	h.state = OkMessOkWaitingAck

	if h.earlyAck != nil {
		buffered := *h.earlyAck
		h.earlyAck = nil
		if _, err := h.handleAck(buffered); err != nil {
			return ackBytes, err
		}
	}
	return ackBytes, nil
}

func (h *Handshake) handleAck(frame Frame) ([]byte, error) {
	if h.state == WaitingConnect {
		if h.earlyAck != nil {
			h.fail("unexpected_ack")
			return nil, ErrUnexpectedAckMsg
		}
		f := frame
		h.earlyAck = &f
		return nil, nil
	}

	if h.state != OkMessOkWaitingAck {
		h.fail("unexpected_message")
		return nil, ErrUnexpectedMessage
	}
	if len(frame.Payload) != 32 {
		h.fail("malformed_frame")
		return nil, ErrMalformedFrame
	}

	sig, err := ids.NewEd25519Signature(frame.Trailer)
	if err != nil {
		h.fail("invalid_hash_or_sig")
		return nil, ErrInvalidHashOrSig
	}
	frameNoTrailer := frameBeforeTrailer(h.magic, h.version, TypeAck, frame.Payload)
	if err := crypto.Verify(h.peerSigPK, frameNoTrailer, sig); err != nil {
		h.fail("invalid_hash_or_sig")
		return nil, ErrInvalidHashOrSig
	}

	wantChallenge := sha256.Sum256(h.ephemeral.Pub[:])
	if !hmacEqual(wantChallenge[:], frame.Payload) {
		h.fail("invalid_challenge")
		return nil, ErrInvalidChallenge
	}

	h.ephemeral.Zeroize()
	h.establish()
	return nil, nil
}

// Session derives the AEAD session from the completed handshake. It is an
// error to call this before Established.
func (h *Handshake) Session() (*Session, error) {
	if h.state != Established {
		return nil, ErrNegotiationMustHaveBeenSuccessful
	}
	return newSession(h.magic, h.version, h.sharedSecret, h.isInitiator)
}

// SetInitiator marks which side of the derived Session uses which
// directional key half; the two peers must disagree (one true, one false).
func (h *Handshake) SetInitiator(v bool) { h.isInitiator = v }
