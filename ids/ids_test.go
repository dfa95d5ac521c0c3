package ids_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/ids"
)

func TestPubKeyBase58RoundTrip(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i * 3)
	}
	pk, err := ids.NewEd25519PubKey(raw[:])
	require.NoError(t, err)

	parsed, err := ids.PubKeyFromBase58(pk.String())
	require.NoError(t, err)
	require.True(t, pk.Equal(parsed))
}

func TestPubKeyVector(t *testing.T) {
	pk, err := ids.PubKeyFromBase58("DNann1Lh55eZMEDXeYt59bzHbA3NJR46DeQYCS2qQdLV")
	require.NoError(t, err)
	require.Equal(t, ids.AlgoEd25519, pk.Algo)
	require.Equal(t, "DNann1Lh55eZMEDXeYt59bzHbA3NJR46DeQYCS2qQdLV", pk.String())
}

func TestBlockstampOrdering(t *testing.T) {
	a := ids.Blockstamp{Number: 1, Hash: ids.BlockHash{0x01}}
	b := ids.Blockstamp{Number: 2, Hash: ids.BlockHash{0x00}}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))

	c := ids.Blockstamp{Number: 1, Hash: ids.BlockHash{0x02}}
	require.True(t, a.Less(c))
}

func TestBlockstampZero(t *testing.T) {
	var zero ids.Blockstamp
	require.True(t, zero.IsZero())

	nonZero := ids.Blockstamp{Number: 0, Hash: ids.BlockHash{0x01}}
	require.False(t, nonZero.IsZero())
}
