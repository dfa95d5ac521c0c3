// Package b58 implements the base58/base64 codecs used for displaying and
// parsing key material, per the crypto primitives contract.
package b58

import (
	"encoding/base64"

	"github.com/mr-tron/base58"
)

// Decode decodes s and checks that it produced exactly expected bytes. A
// malformed alphabet character is reported with its offset; a decodable
// string of the wrong length is reported as ErrInvalidLength.
func Decode(s string, expected int) ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrInvalidBaseConverterLength
	}
	for i, r := range s {
		if !isBase58Char(r) {
			return nil, &ErrInvalidCharacter{Char: r, Offset: i}
		}
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, &ErrInvalidCharacter{Char: 0, Offset: 0}
	}
	if len(b) != expected {
		return nil, &ErrInvalidLength{Found: len(b), Expected: expected}
	}
	return b, nil
}

// Encode encodes b using the Bitcoin base58 alphabet.
func Encode(b []byte) string {
	return base58.Encode(b)
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func isBase58Char(r rune) bool {
	for _, c := range base58Alphabet {
		if c == r {
			return true
		}
	}
	return false
}

// DecodeBase64 decodes s (standard encoding) and checks the decoded length.
func DecodeBase64(s string, expected int) ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrInvalidBaseConverterLength
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &ErrInvalidCharacter{Char: 0, Offset: 0}
	}
	if len(b) != expected {
		return nil, &ErrInvalidLength{Found: len(b), Expected: expected}
	}
	return b, nil
}

// EncodeBase64 encodes b using standard base64.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
