package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/duniter/dunicore/config"
	"github.com/duniter/dunicore/crypto"
	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/metrics"
	"github.com/duniter/dunicore/router"
)

// Command selects which modules Node Core loads.
type Command int

const (
	// CmdStart loads every enabled module plus the blockchain module.
	CmdStart Command = iota
	// CmdSync loads only network modules suitable for sync, plus the
	// blockchain module.
	CmdSync
	// CmdListModules loads no modules; only enumerates them.
	CmdListModules
)

// Config is Node Core's startup configuration.
type Config struct {
	ProfilesPath string
	ProfileName  string // defaults to "default"
	ForkWindow   int
	MaxCert      uint32

	// GenerateKeyIfAbsent decides whether a missing keypair file is
	// generated on startup or treated as an error.
	GenerateKeyIfAbsent bool
}

// ProfileDir resolves profiles_path/profile_name, defaulting profile_name
// to "default".
func ProfileDir(profilesPath, profileName string) string {
	if profileName == "" {
		profileName = "default"
	}
	return filepath.Join(profilesPath, profileName)
}

// LoadOrGenerateKeyPair loads the keypair file at path. When the file is
// absent it either generates and persists a fresh keypair or refuses,
// depending on generateIfAbsent.
func LoadOrGenerateKeyPair(path string, generateIfAbsent bool) (crypto.KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		return crypto.UnmarshalKeyPairFile(raw)
	}
	if !os.IsNotExist(err) {
		return crypto.KeyPair{}, fmt.Errorf("node: read keypair file: %w", err)
	}
	if !generateIfAbsent {
		return crypto.KeyPair{}, fmt.Errorf("node: keypair file %s does not exist and generation was refused", path)
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("node: generate keypair: %w", err)
	}
	raw, err = crypto.MarshalKeyPairFile(kp)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return crypto.KeyPair{}, fmt.Errorf("node: create profile dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return crypto.KeyPair{}, fmt.Errorf("node: write keypair file: %w", err)
	}
	return kp, nil
}

// SelectModules filters enabled by command: Start loads all, Sync loads
// only NetworkModule values whose SupportsSync() is true, ListModules
// loads none.
func SelectModules(cmd Command, enabled []Module) []Module {
	switch cmd {
	case CmdStart:
		return enabled
	case CmdSync:
		var out []Module
		for _, m := range enabled {
			if nm, ok := m.(NetworkModule); ok && nm.SupportsSync() {
				out = append(out, m)
			}
		}
		return out
	default: // CmdListModules
		return nil
	}
}

// Run performs the node startup sequence: resolve the
// profile directory, load configuration and keypair, construct the
// router, register the always-loaded blockchain module, spawn the
// selected worker modules, block on the blockchain module, then join
// everyone else. It returns once every module has stopped, after ctx is
// cancelled or the blockchain module exits on its own.
func Run(ctx context.Context, conf Config, logger log.Logger, reg prometheus.Registerer, cmd Command, enabled []Module) error {
	profileDir := ProfileDir(conf.ProfilesPath, conf.ProfileName)
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return fmt.Errorf("node: create profile dir: %w", err)
	}

	store, err := config.Open(filepath.Join(profileDir, "conf.json"))
	if err != nil {
		return fmt.Errorf("node: load configuration: %w", err)
	}

	if _, err := LoadOrGenerateKeyPair(filepath.Join(profileDir, "keypairs.json"), conf.GenerateKeyIfAbsent); err != nil {
		return err
	}

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := router.New(logger, m)
	routerErrCh := make(chan error, 1)
	go func() { routerErrCh <- r.Start(ctx, store) }()

	modules := SelectModules(cmd, enabled)
	r.SetModulesCount(len(modules) + 1)

	blockchain := NewBlockchainModule(logger, conf.ForkWindow, conf.MaxCert)
	blockchain.Tree.SetMetrics(m)
	if err := r.Register(blockchain.Registration()); err != nil {
		cancel()
		<-routerErrCh
		return fmt.Errorf("node: register blockchain module: %w", err)
	}

	var wg sync.WaitGroup
	for _, mod := range modules {
		modReg := mod.Registration()
		if err := r.Register(modReg); err != nil {
			cancel()
			<-routerErrCh
			return fmt.Errorf("node: register module %s: %w", modReg.StaticName, err)
		}
		wg.Add(1)
		go func(mod Module, staticName string) {
			defer wg.Done()
			var runErr error
			if cmd == CmdSync {
				runErr = mod.Sync(ctx, store.Module(staticName), r)
			} else {
				runErr = mod.Start(ctx, store.Module(staticName), r)
			}
			if runErr != nil && ctx.Err() == nil {
				logger.Error("node: module exited with error", "module", staticName, "err", runErr)
			}
		}(mod, modReg.StaticName)
	}

	blockchainErrCh := make(chan error, 1)
	go func() {
		if cmd == CmdSync {
			blockchainErrCh <- blockchain.Sync(ctx, store.Module("blockchain"), r)
		} else {
			blockchainErrCh <- blockchain.Start(ctx, store.Module("blockchain"), r)
		}
	}()

	// Block on the blockchain module, then join the rest. When the
	// blockchain module returns on its own (not via ctx cancellation),
	// signal every other module to stop too.
	blockchainErr := <-blockchainErrCh
	cancel()
	wg.Wait()
	<-routerErrCh

	if blockchainErr != nil && blockchainErr != context.Canceled {
		return fmt.Errorf("node: blockchain module exited: %w", blockchainErr)
	}
	return nil
}
