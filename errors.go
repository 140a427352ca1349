package axial

import "errors"

// Error kinds shared by every package of the module. Errors returned by
// builders wrap exactly one of these so callers can tell them apart with
// errors.Is.
var (
	// ErrInvalidInput is returned for caller errors: malformed seam lists,
	// unknown methods, violated profile preconditions and the like.
	// These are never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConstruction is returned when a face, wire, shell or solid could not be
	// built for the requested sampling density or tolerance.
	ErrConstruction = errors.New("construction failed")

	// ErrFilletInfeasible is returned when a fillet cannot be built at the
	// requested radius. Callers are expected to retry with a smaller radius.
	ErrFilletInfeasible = errors.New("fillet infeasible")

	// ErrNoConvergence is returned when a numerical root-find did not converge.
	ErrNoConvergence = errors.New("no convergence")
)
