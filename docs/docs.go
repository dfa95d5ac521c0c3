// Package docs defines the signed-payload contract that blockchain
// documents (identity, certification, membership, revocation) satisfy.
// Parsing the textual document forms is left to callers; this package
// only fixes the shape the core consumes.
package docs

import "github.com/duniter/dunicore/ids"

// SignedDocument is the contract every blockchain document satisfies: a
// canonical byte form that was (or will be) signed, and the issuer/
// signature pair proving it.
type SignedDocument interface {
	// CanonicalText is the exact byte sequence that was/will be signed:
	// the document's textual form minus its trailing signature line.
	CanonicalText() []byte
	Issuer() ids.PubKey
	Signature() ids.Signature
}

// Identity is a self-certified username claim.
type Identity struct {
	IssuerKey ids.PubKey
	Username  string
	CreatedAt ids.Blockstamp
	SelfSig   ids.Signature
	Canonical []byte
}

func (d Identity) CanonicalText() []byte { return d.Canonical }
func (d Identity) Issuer() ids.PubKey { return d.IssuerKey }
func (d Identity) Signature() ids.Signature { return d.SelfSig }

// Certification is a trust link from one identity to another.
type Certification struct {
	From       ids.PubKey
	To         ids.PubKey
	BlockID    ids.BlockNumber
	MedianTime uint64
	Sig        ids.Signature
	Canonical  []byte
}

func (d Certification) CanonicalText() []byte { return d.Canonical }
func (d Certification) Issuer() ids.PubKey { return d.From }
func (d Certification) Signature() ids.Signature { return d.Sig }

// Membership is a signed assertion that an identity is joining (or
// renewing) active WoT membership; it enables the issuer's WoT node.
type Membership struct {
	IssuerKey ids.PubKey
	BlockID   ids.BlockNumber
	Sig       ids.Signature
	Canonical []byte
}

func (d Membership) CanonicalText() []byte { return d.Canonical }
func (d Membership) Issuer() ids.PubKey { return d.IssuerKey }
func (d Membership) Signature() ids.Signature { return d.Sig }

// Revocation is a signed assertion that permanently withdraws an identity
// from the WoT; it disables the issuer's WoT node and retracts the
// certifications it issued.
type Revocation struct {
	IssuerKey ids.PubKey
	Sig       ids.Signature
	Canonical []byte
}

func (d Revocation) CanonicalText() []byte { return d.Canonical }
func (d Revocation) Issuer() ids.PubKey { return d.IssuerKey }
func (d Revocation) Signature() ids.Signature { return d.Sig }
