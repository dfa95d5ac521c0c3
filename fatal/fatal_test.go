package fatal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/log"
)

func TestFatalCallsExitWithCode2(t *testing.T) {
	orig := exitFunc
	defer func() { exitFunc = orig }()

	var gotCode int
	exitFunc = func(code int) { gotCode = code }

	Fatal(log.New(), "router", errors.New("reserved api overlap"))
	require.Equal(t, 2, gotCode)
}
