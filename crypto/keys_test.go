package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/crypto"
	"github.com/duniter/dunicore/crypto/b58"
	"github.com/duniter/dunicore/ids"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("an arbitrary canonical document body")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	require.NoError(t, crypto.Verify(kp.Pub, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := kp.Sign([]byte("original"))
	require.NoError(t, err)

	err = crypto.Verify(kp.Pub, []byte("tampered"), sig)
	require.ErrorIs(t, err, crypto.ErrInvalidSig)
}

func TestVerifyRejectsMismatchedAlgo(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sig, err := kp.Sign([]byte("msg"))
	require.NoError(t, err)

	sig.Algo = ids.AlgoUnknown
	err = crypto.Verify(kp.Pub, []byte("msg"), sig)
	require.ErrorIs(t, err, crypto.ErrNotSameAlgo)
}

// TestScryptKeyPairReferenceVector reproduces the network's reference
// scrypt keypair derivation vector.
func TestScryptKeyPairReferenceVector(t *testing.T) {
	const password = "JhxtHB7UcsDbA9wMSyMKXUzBZUQvqVyB32KwzS9SWoLkjrUhHV"
	salt := password + "_"

	kp, err := crypto.KeyPairFromSaltedPassword(password, salt)
	require.NoError(t, err)
	require.Equal(t, "7iMV3b6j2hSj5WtrfchfvxivS9swN3opDgxudeHq64fb", kp.Pub.String())
}

func TestSignatureVector(t *testing.T) {
	pub, err := ids.PubKeyFromBase58("DNann1Lh55eZMEDXeYt59bzHbA3NJR46DeQYCS2qQdLV")
	require.NoError(t, err)

	privRaw, err := b58.Decode("468Q1XtTq7h84NorZdWBZFJrGkB18CbmbHr9tkp9snt5GiERP7ySs3wM8myLccbAAGejgMRC9rqnXuW3iAfZACm7", 64)
	require.NoError(t, err)

	kp, err := crypto.KeyPairFromSeed(privRaw[:32])
	require.NoError(t, err)
	require.True(t, kp.Pub.Equal(pub))

	sig, err := kp.Sign(identityMessage)
	require.NoError(t, err)
	require.Equal(t, "1eubHHbuNfilHMM0G2bI30iZzebQ2cQ1PC7uPAw08FGMMmQCRerlF/3pc4sAcsnexsxBseA/3lY03KlONqJBAg==", sig.String())
}

// identityMessage is the canonical text of the reference identity
// document used by the signature test vector.
var identityMessage = []byte("Version: 10\n" +
	"Type: Identity\n" +
	"Currency: duniter_unit_test_currency\n" +
	"Issuer: DNann1Lh55eZMEDXeYt59bzHbA3NJR46DeQYCS2qQdLV\n" +
	"UniqueID: tic\n" +
	"Timestamp: 0-E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855\n")

func TestEphemeralAgreementSymmetric(t *testing.T) {
	a, err := crypto.GenerateEphemeral()
	require.NoError(t, err)
	b, err := crypto.GenerateEphemeral()
	require.NoError(t, err)

	sharedA, err := a.Agree(b.Pub)
	require.NoError(t, err)
	sharedB, err := b.Agree(a.Pub)
	require.NoError(t, err)
	require.Equal(t, sharedA, sharedB)
}

func TestEphemeralZeroize(t *testing.T) {
	kp, err := crypto.GenerateEphemeral()
	require.NoError(t, err)
	kp.Zeroize()
	require.Equal(t, [32]byte{}, kp.Priv)
}
