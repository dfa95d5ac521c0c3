package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/duniter/dunicore/ids"
)

// KeyPairFile is the on-disk shape of a long-term keypair (keypairs.json
// in the profile directory): public key in base58, the network's canonical
// display form, and private key in base64, since raw private key material
// has no canonical textual form of its own.
type KeyPairFile struct {
	Pub  string `json:"pub"`
	Priv string `json:"priv"`
}

// MarshalKeyPairFile serializes kp as a KeyPairFile JSON document.
func MarshalKeyPairFile(kp KeyPair) ([]byte, error) {
	return json.MarshalIndent(KeyPairFile{
		Pub:  kp.Pub.String(),
		Priv: base64.StdEncoding.EncodeToString(kp.priv),
	}, "", "  ")
}

// UnmarshalKeyPairFile parses a KeyPairFile JSON document into a KeyPair.
func UnmarshalKeyPairFile(raw []byte) (KeyPair, error) {
	var f KeyPairFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return KeyPair{}, fmt.Errorf("crypto: parse keypair file: %w", err)
	}
	pub, err := ids.PubKeyFromBase58(f.Pub)
	if err != nil {
		return KeyPair{}, fmt.Errorf("crypto: keypair file pub: %w", err)
	}
	privRaw, err := base64.StdEncoding.DecodeString(f.Priv)
	if err != nil {
		return KeyPair{}, fmt.Errorf("crypto: keypair file priv: %w", err)
	}
	if len(privRaw) != ed25519.PrivateKeySize {
		return KeyPair{}, fmt.Errorf("crypto: keypair file priv: expected %d bytes, got %d", ed25519.PrivateKeySize, len(privRaw))
	}
	return KeyPair{Pub: pub, priv: ed25519.PrivateKey(privRaw)}, nil
}
