package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/router"
)

func TestParseEndpointMinimal(t *testing.T) {
	e, err := router.ParseEndpoint("UNKNOWN_API 8080")
	require.NoError(t, err)
	require.Equal(t, router.Endpoint{ApiName: "UNKNOWN_API", Port: 8080}, e)
	require.Equal(t, "UNKNOWN_API 8080", e.String())
}

func TestParseEndpointLegacyDomain(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P localhost 10900")
	require.NoError(t, err)
	require.Equal(t, "localhost", e.Domain)
	require.Equal(t, 10900, e.Port)
	require.Equal(t, "WS2P localhost 10900", e.String())
}

func TestParseEndpointLegacyWithoutPath(t *testing.T) {
	e, err := router.ParseEndpoint("ES_CORE_API g1.data.duniter.fr 443")
	require.NoError(t, err)
	require.Equal(t, "g1.data.duniter.fr", e.Domain)
	require.Equal(t, 443, e.Port)
	require.Empty(t, e.Path)
}

func TestParseEndpointV2WithDomainAndPath(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P V2 S 0x7 g1.durs.ifee.fr 443 ws2p")
	require.NoError(t, err)
	require.Equal(t, router.Endpoint{
		ApiName:    "WS2P",
		ApiVersion: 2,
		TLS:        true,
		ApiFlags:   0x7,
		Domain:     "g1.durs.ifee.fr",
		Port:       443,
		Path:       "ws2p",
	}, e)
	require.Equal(t, "WS2P V2 S 0x7 g1.durs.ifee.fr 443 ws2p", e.String())
}

func TestParseEndpointV2WithIP4(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P V2 S 0x7 84.16.72.210 443 ws2p")
	require.NoError(t, err)
	require.Equal(t, "84.16.72.210", e.IP4)
	require.Empty(t, e.Domain)
	require.Equal(t, "WS2P V2 S 0x7 84.16.72.210 443 ws2p", e.String())
}

func TestParseEndpointV2WithIP6(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P V2 S 0x7 [2001:41d0:8:c5aa::1] 443 ws2p")
	require.NoError(t, err)
	require.Equal(t, "2001:41d0:8:c5aa::1", e.IP6)
	require.Equal(t, "WS2P V2 S 0x7 [2001:41d0:8:c5aa::1] 443 ws2p", e.String())
}

func TestParseEndpointV2WithIP4AndIP6(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P V2 S 0x7 5.135.188.170 [2001:41d0:8:c5aa::1] 443 ws2p")
	require.NoError(t, err)
	require.Equal(t, "5.135.188.170", e.IP4)
	require.Equal(t, "2001:41d0:8:c5aa::1", e.IP6)
	require.Equal(t, "WS2P V2 S 0x7 5.135.188.170 [2001:41d0:8:c5aa::1] 443 ws2p", e.String())
}

func TestParseEndpointV2WithAllHostFields(t *testing.T) {
	raw := "WS2P V2 S 0x7 5.135.188.170 [2001:41d0:8:c5aa::1] g1.dunitrust.org 443 ws2p"
	e, err := router.ParseEndpoint(raw)
	require.NoError(t, err)
	require.Equal(t, "5.135.188.170", e.IP4)
	require.Equal(t, "2001:41d0:8:c5aa::1", e.IP6)
	require.Equal(t, "g1.dunitrust.org", e.Domain)
	require.True(t, e.HTTP == false && e.WS == false && e.TLS && e.TOR == false)
	require.Equal(t, raw, e.String())
}

func TestParseEndpointAllNetworkFeatures(t *testing.T) {
	e, err := router.ParseEndpoint("WS2P V2 HTTP WS S TOR 51900")
	require.NoError(t, err)
	require.True(t, e.HTTP)
	require.True(t, e.WS)
	require.True(t, e.TLS)
	require.True(t, e.TOR)
	require.Equal(t, "WS2P V2 HTTP WS S TOR 51900", e.String())
}

func TestParseEndpointMissingPort(t *testing.T) {
	_, err := router.ParseEndpoint("ONLY_NAME")
	require.ErrorIs(t, err, router.ErrMalformedEndpoint)
}

func TestParseEndpointBadPort(t *testing.T) {
	_, err := router.ParseEndpoint("API host notaport")
	require.ErrorIs(t, err, router.ErrMalformedEndpoint)
}

func TestEndpointEqualByCanonicalForm(t *testing.T) {
	a := router.Endpoint{ApiName: "WS2P", Domain: "g1.duniter.fr", Port: 443}
	b, err := router.ParseEndpoint(a.String())
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	c := a
	c.Path = "ws2p"
	require.False(t, a.Equal(c))
}
