// Package ids defines the small, widely shared value types of the network:
// block identifiers, algorithm-tagged keys and signatures, and node
// identities. These types carry no behavior beyond equality, ordering and
// display; the packages that use them (crypto, forktree, wot, transport)
// own the operations.
package ids

import (
	"bytes"
	"fmt"

	"github.com/duniter/dunicore/crypto/b58"
)

// Algo tags which signature scheme a PubKey/Signature belongs to.
type Algo byte

const (
	// AlgoUnknown is the zero value; never a valid tag on real key material.
	AlgoUnknown Algo = iota
	// AlgoEd25519 is the only currently supported scheme.
	AlgoEd25519
)

func (a Algo) String() string {
	switch a {
	case AlgoEd25519:
		return "Ed25519"
	default:
		return "Unknown"
	}
}

// Ed25519PubKeySize and Ed25519SigSize are the raw byte sizes of the
// currently supported algorithm.
const (
	Ed25519PubKeySize = 32
	Ed25519SigSize    = 64
)

// PubKey is an algorithm-tagged public key. The zero value is not a valid
// key (Algo == AlgoUnknown).
type PubKey struct {
	Algo  Algo
	Bytes [Ed25519PubKeySize]byte
}

// NewEd25519PubKey wraps raw bytes as an Ed25519 PubKey.
func NewEd25519PubKey(b []byte) (PubKey, error) {
	var pk PubKey
	if len(b) != Ed25519PubKeySize {
		return pk, fmt.Errorf("ids: pubkey must be %d bytes, got %d", Ed25519PubKeySize, len(b))
	}
	pk.Algo = AlgoEd25519
	copy(pk.Bytes[:], b)
	return pk, nil
}

// Equal reports byte-wise equality, including the algorithm tag.
func (p PubKey) Equal(o PubKey) bool {
	return p.Algo == o.Algo && p.Bytes == o.Bytes
}

// String displays the key in base58, the network's canonical form for
// public keys.
func (p PubKey) String() string {
	return b58.Encode(p.Bytes[:])
}

// PubKeyFromBase58 parses s as an Ed25519 public key.
func PubKeyFromBase58(s string) (PubKey, error) {
	raw, err := b58.Decode(s, Ed25519PubKeySize)
	if err != nil {
		return PubKey{}, err
	}
	return NewEd25519PubKey(raw)
}

// Signature is an algorithm-tagged signature.
type Signature struct {
	Algo  Algo
	Bytes [Ed25519SigSize]byte
}

// NewEd25519Signature wraps raw bytes as an Ed25519 Signature.
func NewEd25519Signature(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != Ed25519SigSize {
		return sig, fmt.Errorf("ids: signature must be %d bytes, got %d", Ed25519SigSize, len(b))
	}
	sig.Algo = AlgoEd25519
	copy(sig.Bytes[:], b)
	return sig, nil
}

// Equal reports byte-wise equality, including the algorithm tag.
func (s Signature) Equal(o Signature) bool {
	return s.Algo == o.Algo && s.Bytes == o.Bytes
}

// String displays the signature in base64, the network's canonical form
// for signatures.
func (s Signature) String() string {
	return b58.EncodeBase64(s.Bytes[:])
}

// BlockNumber is a monotonic block height.
type BlockNumber uint32

// BlockHash is a 256-bit block digest.
type BlockHash [32]byte

func (h BlockHash) String() string {
	return fmt.Sprintf("%x", [32]byte(h))
}

// Blockstamp uniquely names a block by height and hash. The zero value
// (Number == 0 and Hash all-zero) denotes "no block".
type Blockstamp struct {
	Number BlockNumber
	Hash   BlockHash
}

// IsZero reports whether bs is the "no block" sentinel.
func (bs Blockstamp) IsZero() bool {
	return bs.Number == 0 && bs.Hash == BlockHash{}
}

// Less implements the total order: by height, then by hash bytes.
func (bs Blockstamp) Less(o Blockstamp) bool {
	if bs.Number != o.Number {
		return bs.Number < o.Number
	}
	return bytes.Compare(bs.Hash[:], o.Hash[:]) < 0
}

func (bs Blockstamp) String() string {
	return fmt.Sprintf("%d-%s", bs.Number, bs.Hash)
}

// NodeID is a dense, process-local identifier, e.g. for fork tree nodes or
// WoT graph nodes.
type NodeID uint32

// NodeFullId uniquely identifies a peer instance across restarts.
type NodeFullId struct {
	NodeID NodeID
	PubKey PubKey
}

func (n NodeFullId) String() string {
	return fmt.Sprintf("%d-%s", n.NodeID, n.PubKey)
}
