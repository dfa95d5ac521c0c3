package transport

import "github.com/duniter/dunicore/crypto"

// NewMinimalSession builds the AEAD-framing half of the secure channel
// directly from a pre-shared X25519 static pair, skipping the Connect/Ack
// identity-proof exchange. It is scoped narrowly to trusted links (e.g.
// loopback, tests) where peer authentication is established out of band.
func NewMinimalSession(magic uint32, version uint16, localStatic crypto.EphemeralKeyPair, peerStaticPub [32]byte, isInitiator bool) (*Session, error) {
	secret, err := localStatic.Agree(peerStaticPub)
	if err != nil {
		return nil, err
	}
	return newSession(magic, version, secret, isInitiator)
}
