package b58

import "fmt"

// ErrInvalidLength is returned when a decoded base58/base64 string does not
// produce the expected number of bytes.
type ErrInvalidLength struct {
	Found    int
	Expected int
}

func (e *ErrInvalidLength) Error() string {
	return fmt.Sprintf("invalid length: found %d bytes, expected %d", e.Found, e.Expected)
}

// ErrInvalidCharacter is returned when a base58/base64 string contains a
// character outside its alphabet.
type ErrInvalidCharacter struct {
	Char   rune
	Offset int
}

func (e *ErrInvalidCharacter) Error() string {
	return fmt.Sprintf("invalid character %q at offset %d", e.Char, e.Offset)
}

// ErrInvalidBaseConverterLength is returned when the raw input itself is
// malformed (e.g. empty) independent of any specific character.
var ErrInvalidBaseConverterLength = fmt.Errorf("invalid base converter length")

// ErrInvalidSig is returned by Verify when the signature does not match.
var ErrInvalidSig = fmt.Errorf("invalid signature")

// ErrNotSameAlgo is returned when a PubKey and Signature carry different
// algorithm tags.
var ErrNotSameAlgo = fmt.Errorf("not same algorithm")

// ErrNotSig is returned when a byte sequence cannot be interpreted as a
// signature of any known algorithm.
var ErrNotSig = fmt.Errorf("not a signature")
