package crypto

import "errors"

// Signature verification error kinds.
var (
	ErrInvalidSig  = errors.New("crypto: invalid signature")
	ErrNotSameAlgo = errors.New("crypto: not same algorithm")
	ErrNotSig      = errors.New("crypto: not a signature")
	ErrSerde       = errors.New("crypto: serialization error")
)
