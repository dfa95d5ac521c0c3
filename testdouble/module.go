// Package testdouble provides a no-op Module implementation for exercising
// the router and node core without a real worker subsystem.
package testdouble

import (
	"context"
	"encoding/json"

	"github.com/duniter/dunicore/router"
)

// Module is a worker module that registers with the given declarations and
// otherwise does nothing but wait for Stop or context cancellation.
type Module struct {
	Name      string
	RoleSet   map[router.Role]struct{}
	EventSet  map[router.EventType]struct{}
	APIs      []router.ApiPart
	Endpoints []router.Endpoint

	recv chan router.Message
	send chan<- router.Message

	// Received records every message observed by Start, for assertions.
	Received []router.Message
}

// New constructs a Module with the given static name; capabilities default
// to empty and can be set on the returned value before Registration is
// read by the caller.
func New(name string) *Module {
	ch := make(chan router.Message, 64)
	return &Module{Name: name, recv: ch, send: ch}
}

func (m *Module) Registration() router.Registration {
	return router.Registration{
		StaticName:   m.Name,
		Sender:       m.send,
		Roles:        m.RoleSet,
		Events:       m.EventSet,
		ReservedAPIs: m.APIs,
		Endpoints:    m.Endpoints,
	}
}

func (m *Module) Start(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.recv:
			if _, ok := msg.(router.Stop); ok {
				return nil
			}
			m.Received = append(m.Received, msg)
		}
	}
}

func (m *Module) Sync(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error {
	return m.Start(ctx, globalConf, sender)
}
