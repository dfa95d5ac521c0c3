// Package node implements the node core: profile resolution, logger and
// configuration/keypair loading, router construction, the always-loaded
// blockchain module, worker module spawning, and graceful shutdown.
package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/duniter/dunicore/router"
)

// Module is the concrete shape every worker module (including the
// always-loaded blockchain module) implements: the minimal surface Node
// Core and the router actually call. Each module's own configuration
// stays opaque JSON at this boundary; the module owns its typed
// deserialization (see TypedConf) rather than the router or node core
// knowing its shape.
type Module interface {
	// Registration is this module's one-time declaration of identity and
	// capabilities, including the send-only half of the channel it owns
	// and reads from internally during Start/Sync. The router never holds
	// the receive half.
	Registration() router.Registration

	// Start runs the module's main loop until ctx is cancelled or it
	// observes router.Stop on its own receiver. globalConf is this
	// module's raw entry from the configuration sidecar (nil if absent).
	Start(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error

	// Sync runs a synchronization-only variant of the module loop; the
	// `sync` command invokes this instead of Start.
	Sync(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error
}

// NetworkModule is the subset of Module capable of participating in the
// `sync` command.
type NetworkModule interface {
	Module
	SupportsSync() bool
}

// TypedConf deserializes raw into C, a module's own strongly-typed
// configuration shape. Returns the zero value of C, nil if raw is empty
// (a module with no sidecar entry yet).
func TypedConf[C any](raw json.RawMessage) (C, error) {
	var conf C
	if len(raw) == 0 {
		return conf, nil
	}
	if err := json.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("node: parse module conf: %w", err)
	}
	return conf, nil
}

// GenerateModuleConf combines a module's persisted global configuration
// with a user-supplied override (e.g. CLI flags) into the module's final
// typed configuration; merge is the module-specific combining function.
func GenerateModuleConf[C, U any](global json.RawMessage, user U, merge func(C, U) (C, error)) (C, error) {
	globalConf, err := TypedConf[C](global)
	if err != nil {
		return globalConf, err
	}
	return merge(globalConf, user)
}
