package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/node"
	"github.com/duniter/dunicore/router"
	"github.com/duniter/dunicore/testdouble"
)

func TestRunStartsAndStopsAllModules(t *testing.T) {
	worker := testdouble.New("worker")
	worker.RoleSet = map[router.Role]struct{}{"Worker": {}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- node.Run(ctx, node.Config{
			ProfilesPath:        t.TempDir(),
			ForkWindow:          5,
			MaxCert:             3,
			GenerateKeyIfAbsent: true,
		}, log.New(), nil, node.CmdStart, []node.Module{worker})
	}()

	// Give the blockchain module a moment to register and idle, then ask
	// it to stop via context cancellation (Node Core blocks on the
	// blockchain module until it returns).
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("node.Run did not return after cancellation")
	}
}

func TestSelectModulesFiltersByCommand(t *testing.T) {
	net := &syncCapableModule{Module: testdouble.New("net"), supportsSync: true}
	other := testdouble.New("other")

	all := []node.Module{net, other}

	require.Len(t, node.SelectModules(node.CmdStart, all), 2)
	require.Len(t, node.SelectModules(node.CmdListModules, all), 0)

	synced := node.SelectModules(node.CmdSync, all)
	require.Len(t, synced, 1)
	require.Equal(t, "net", synced[0].(*syncCapableModule).Module.Registration().StaticName)
}

type syncCapableModule struct {
	*testdouble.Module
	supportsSync bool
}

func (s *syncCapableModule) SupportsSync() bool { return s.supportsSync }
