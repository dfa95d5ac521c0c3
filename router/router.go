package router

import (
	"context"
	"fmt"
	"time"

	"github.com/duniter/dunicore/config"
	"github.com/duniter/dunicore/fatal"
	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/metrics"
)

// MaxRegistrationDelay is the registration barrier's grace window: the
// time after start during which late registrations still receive replayed
// pool messages, and within which the full expected module count must
// register or the process aborts. The secure-transport handshake timeout
// reuses this same constant.
const MaxRegistrationDelay = 20 * time.Second

// moduleEntry is the broadcasting thread's authoritative record for one
// registered module.
type moduleEntry struct {
	sender    chan<- Message
	roles     map[Role]struct{}
	events    map[EventType]struct{}
	endpoints []Endpoint
}

func (m *moduleEntry) matches(msg Message, name string) bool {
	switch v := msg.(type) {
	case Event:
		if v.From == name {
			return false
		}
		_, ok := m.events[v.Type]
		return ok
	case Request:
		_, ok := m.roles[v.To]
		return ok
	case Response:
		return v.To == name
	default:
		return false
	}
}

type registerCmd struct {
	reg  Registration
	done chan error
}

// Sender is the narrow surface a module needs against the router: declare
// capabilities once, then push messages. Modules depend on this interface
// rather than *Router directly; the router owns only modules' send-only
// channel halves, and a module in turn depends only on this capability,
// not the router's internal state.
type Sender interface {
	Register(reg Registration) error
	Send(msg Message)
}

// Router is the process-internal message bus: a main accepting surface
// (the exported methods below, called from arbitrary module goroutines),
// a broadcasting loop that owns all routing state (roles, event
// subscriptions, endpoints, the late-join replay pool), and a
// configuration goroutine that owns the on-disk configuration sidecar.
// The broadcasting and main responsibilities share a single select loop;
// nothing else ever touches the broadcasting state, so a second goroutine
// would add a hop without adding concurrency safety.
type Router struct {
	logger  log.Logger
	metrics *metrics.Metrics

	countCh    chan int
	registerCh chan registerCmd
	dispatchCh chan Message
	confCh     chan SaveNewModuleConf

	stopped chan struct{}
}

// New constructs a Router. Call Start in its own goroutine before any
// module calls SetModulesCount, Register or Send.
func New(logger log.Logger, m *metrics.Metrics) *Router {
	return &Router{
		logger:     logger,
		metrics:    m,
		countCh:    make(chan int, 1),
		registerCh: make(chan registerCmd),
		dispatchCh: make(chan Message, 256),
		confCh:     make(chan SaveNewModuleConf, 16),
		stopped:    make(chan struct{}),
	}
}

// SetModulesCount sets the registration barrier size. Safe to call
// before or while modules are registering.
func (r *Router) SetModulesCount(n int) {
	r.countCh <- n
}

// Register declares a module's capabilities and blocks until the
// broadcasting loop has validated it. Reservation conflicts and
// undeclared endpoints are fatal to the process; Register still returns
// the error so a test harness can observe it before the process would
// exit.
func (r *Router) Register(reg Registration) error {
	done := make(chan error, 1)
	r.registerCh <- registerCmd{reg: reg, done: done}
	return <-done
}

// Send enqueues msg for routing. A module that sends a ModulesEndpoints
// (router-emitted only) has it logged and dropped rather than routed.
func (r *Router) Send(msg Message) {
	if _, ok := msg.(ModulesEndpoints); ok {
		r.logger.Warn("router: module attempted to send router-only message", "type", "ModulesEndpoints")
		return
	}
	if conf, ok := msg.(SaveNewModuleConf); ok {
		r.confCh <- conf
		return
	}
	r.dispatchCh <- msg
}

// Start runs the router until ctx is cancelled or a Stop message is
// routed, whichever comes first. It blocks the calling goroutine so Node
// Core has something to join against.
func (r *Router) Start(ctx context.Context, store *config.Store) error {
	go r.runConfig(store)
	defer close(r.confCh)

	startTime := time.Now()
	expected := 0
	expectedSet := false
	received := 0
	modules := map[string]*moduleEntry{}
	reserved := map[ApiPart]string{}
	var pool []Message
	poolCleared := false

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	broadcastStop := func() {
		for _, m := range modules {
			m.sender <- Stop{}
		}
	}

	for {
		select {
		case <-ctx.Done():
			broadcastStop()
			return ctx.Err()

		case n := <-r.countCh:
			if !expectedSet {
				expected = n
				expectedSet = true
				if received == expected {
					r.emitModulesEndpoints(modules)
				}
			}

		case cmd := <-r.registerCh:
			err := r.validateAndRegister(cmd.reg, modules, reserved)
			if err != nil {
				cmd.done <- err
				fatal.Fatal(r.logger, "router", err)
				return err
			}
			entry := modules[cmd.reg.StaticName]
			if !poolCleared {
				for _, m := range pool {
					if entry.matches(m, cmd.reg.StaticName) {
						entry.sender <- m
					}
				}
			}
			cmd.done <- nil
			received++
			if r.metrics != nil {
				r.metrics.RouterRegistrations.Inc()
			}
			if expectedSet && received == expected {
				r.emitModulesEndpoints(modules)
			}

		case msg := <-r.dispatchCh:
			if _, ok := msg.(Stop); ok {
				broadcastStop()
				return nil
			}
			r.dispatchOne(msg, modules, startTime, poolCleared)
			if !poolCleared {
				switch msg.(type) {
				case Event, Request, Response:
					pool = append(pool, msg)
				}
			}

		case <-ticker.C:
			elapsed := time.Since(startTime)
			if expectedSet && received < expected && elapsed > MaxRegistrationDelay {
				if r.metrics != nil {
					r.metrics.RouterRegistrationPasses.Inc()
				}
				err := fmt.Errorf("%w: have %d, want %d", ErrRegistrationTimeout, received, expected)
				fatal.Fatal(r.logger, "router", err)
				return err
			}
			if !poolCleared && elapsed > MaxRegistrationDelay {
				pool = nil
				poolCleared = true
			}
		}
	}
}

func (r *Router) validateAndRegister(reg Registration, modules map[string]*moduleEntry, reserved map[ApiPart]string) error {
	if _, exists := modules[reg.StaticName]; exists {
		return fmt.Errorf("router: module %q already registered", reg.StaticName)
	}

	claimed := map[ApiPart]struct{}{}
	for _, p := range reg.ReservedAPIs {
		claimed[p] = struct{}{}
	}
	for _, ep := range reg.Endpoints {
		key := ApiPart{Name: ep.ApiName, Version: ep.ApiVersion}
		if _, ok := claimed[key]; !ok {
			return fmt.Errorf("%w: module %s advertises %s v%d", ErrUndeclaredEndpointAPI, reg.StaticName, ep.ApiName, ep.ApiVersion)
		}
	}
	for p := range claimed {
		if owner, ok := reserved[p]; ok && owner != reg.StaticName {
			return fmt.Errorf("%w: %s v%d claimed by %s and %s", ErrDuplicateAPIReservation, p.Name, p.Version, owner, reg.StaticName)
		}
	}
	for p := range claimed {
		reserved[p] = reg.StaticName
	}

	modules[reg.StaticName] = &moduleEntry{
		sender:    reg.Sender,
		roles:     reg.Roles,
		events:    reg.Events,
		endpoints: reg.Endpoints,
	}
	return nil
}

// dispatchOne delivers msg to every module currently matching it.
func (r *Router) dispatchOne(msg Message, modules map[string]*moduleEntry, startTime time.Time, poolCleared bool) {
	switch v := msg.(type) {
	case Event:
		r.countRelay("event")
		for name, m := range modules {
			if m.matches(v, name) {
				m.sender <- msg
			}
		}
	case Request:
		r.countRelay("request")
		for name, m := range modules {
			if m.matches(v, name) {
				m.sender <- msg
			}
		}
	case Response:
		r.countRelay("response")
		if m, ok := modules[v.To]; ok {
			m.sender <- msg
			return
		}
		if poolCleared {
			r.logger.Warn("router: response to unknown receiver after grace window", "to", v.To)
		}
	default:
		r.logger.Warn("router: dropping unroutable message", "type", fmt.Sprintf("%T", msg))
	}
}

func (r *Router) countRelay(kind string) {
	if r.metrics != nil {
		r.metrics.RouterMessagesRelayed.WithLabelValues(kind).Inc()
	}
}

// emitModulesEndpoints sends the union of every registered module's
// endpoints to every module carrying RoleInterNodesNetwork, once the
// registration barrier is satisfied.
func (r *Router) emitModulesEndpoints(modules map[string]*moduleEntry) {
	var union []Endpoint
	for _, m := range modules {
		union = append(union, m.endpoints...)
	}
	notice := ModulesEndpoints{Endpoints: union}
	for _, m := range modules {
		if _, ok := m.roles[RoleInterNodesNetwork]; ok {
			m.sender <- notice
		}
	}
}

func (r *Router) runConfig(store *config.Store) {
	for conf := range r.confCh {
		if store == nil {
			r.logger.Warn("router: SaveNewModuleConf dropped, no configuration store", "module", conf.ModuleName)
			continue
		}
		if err := store.SaveModule(conf.ModuleName, conf.Value); err != nil {
			r.logger.Error("router: failed to persist module configuration", "module", conf.ModuleName, "err", err)
		}
	}
}
