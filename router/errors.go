package router

import "errors"

// Sentinel errors for router invariant violations. Reservation and
// endpoint errors are fatal to the process (they indicate a developer
// mistake in module wiring, not a runtime condition); registration
// timeout and unknown-receiver are logged by the caller.
var (
	// ErrDuplicateAPIReservation is returned when two modules reserve the
	// same (api_name, api_version) pair.
	ErrDuplicateAPIReservation = errors.New("router: duplicate API reservation")
	// ErrUndeclaredEndpointAPI is returned when a module advertises an
	// endpoint under an API it never reserved.
	ErrUndeclaredEndpointAPI = errors.New("router: endpoint advertised without a matching reservation")
	// ErrRegistrationTimeout is returned when the registration barrier is
	// not satisfied within MaxRegistrationDelay.
	ErrRegistrationTimeout = errors.New("router: registration barrier timed out")
	// ErrUnknownReceiverAfterGrace is logged (not propagated as a Go
	// error, since Send is fire-and-forget) when a Response targets an
	// unregistered module after the late-join grace window has elapsed.
	ErrUnknownReceiverAfterGrace = errors.New("router: response addressed to unknown receiver after grace window")
	// ErrMalformedEndpoint is returned by ParseEndpoint when the input
	// does not match the canonical single-line grammar.
	ErrMalformedEndpoint = errors.New("router: malformed endpoint")
)
