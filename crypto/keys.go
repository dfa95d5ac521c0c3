// Package crypto implements the signing, key-derivation and ephemeral
// key-agreement primitives of the network: Ed25519 signatures over
// canonical document text, a scrypt-derived long-term keypair generator,
// and X25519 ephemeral agreement for the secure transport handshake.
package crypto

import (
	"crypto/ed25519"
	cryptorand "crypto/rand"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/scrypt"

	"github.com/duniter/dunicore/ids"
)

// Scrypt parameters for the salted-password keypair generator. These
// defaults reproduce the reference test vector in keys_test.go and MUST
// NOT change without also changing every keypair ever derived from a
// password with them.
const (
	ScryptLogN = 12
	ScryptR    = 16
	ScryptP    = 1
)

// KeyPair is a long-term Ed25519 signing keypair.
type KeyPair struct {
	Pub  ids.PubKey
	priv ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh random Ed25519 keypair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return keyPairFromEd25519(pub, priv)
}

// KeyPairFromSeed builds a keypair deterministically from a 32-byte seed.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return keyPairFromEd25519(pub, priv)
}

// KeyPairFromSaltedPassword derives a keypair the way the network's wallet
// tooling does: a scrypt-derived 32-byte seed expanded into an Ed25519
// keypair. The historical derivation feeds the salt into scrypt's password
// slot and the password into its salt slot; every keypair on the network
// depends on that ordering, so it is load-bearing here too.
func KeyPairFromSaltedPassword(password, salt string) (KeyPair, error) {
	seed, err := scrypt.Key([]byte(salt), []byte(password), 1<<ScryptLogN, ScryptR, ScryptP, ed25519.SeedSize)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPairFromSeed(seed)
}

func keyPairFromEd25519(pub ed25519.PublicKey, priv ed25519.PrivateKey) (KeyPair, error) {
	pk, err := ids.NewEd25519PubKey(pub)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Pub: pk, priv: priv}, nil
}

// Sign signs msg with the keypair's private key. Signing is deterministic:
// the same (priv, msg) pair always produces the same signature.
func (kp KeyPair) Sign(msg []byte) (ids.Signature, error) {
	raw := ed25519.Sign(kp.priv, msg)
	return ids.NewEd25519Signature(raw)
}

// Verify checks sig against msg under pub. A mismatched algorithm tag
// fails with ErrNotSameAlgo before any cryptographic check is attempted.
func Verify(pub ids.PubKey, msg []byte, sig ids.Signature) error {
	if pub.Algo != sig.Algo {
		return ErrNotSameAlgo
	}
	switch pub.Algo {
	case ids.AlgoEd25519:
		if !ed25519.Verify(pub.Bytes[:], msg, sig.Bytes[:]) {
			return ErrInvalidSig
		}
		return nil
	default:
		return ErrNotSig
	}
}

// EphemeralKeyPair is an X25519 keypair generated per handshake. Its
// private half is zeroized once the shared secret has been derived.
type EphemeralKeyPair struct {
	Priv [32]byte
	Pub  [32]byte
}

// GenerateEphemeral creates a fresh X25519 ephemeral keypair.
func GenerateEphemeral() (EphemeralKeyPair, error) {
	var kp EphemeralKeyPair
	if _, err := cryptorand.Read(kp.Priv[:]); err != nil {
		return EphemeralKeyPair{}, err
	}
	pub, err := curve25519.X25519(kp.Priv[:], curve25519.Basepoint)
	if err != nil {
		return EphemeralKeyPair{}, err
	}
	copy(kp.Pub[:], pub)
	return kp, nil
}

// Agree computes the X25519 shared secret with peerPub.
func (kp EphemeralKeyPair) Agree(peerPub [32]byte) ([32]byte, error) {
	shared, err := curve25519.X25519(kp.Priv[:], peerPub[:])
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], shared)
	return out, nil
}

// Zeroize clears the private half of the keypair in place. Callers MUST
// call this once the shared secret has been derived and is no longer
// needed from this slot.
func (kp *EphemeralKeyPair) Zeroize() {
	for i := range kp.Priv {
		kp.Priv[i] = 0
	}
}
