package alloc

import "fmt"

// ValidationError reports malformed or inconsistent input data. It is fatal
// to the run and is returned before any solve attempt.
type ValidationError struct {
	Record string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Record, e.Reason)
}

// ConstraintError reports an invalid constraint specification, such as a
// share fraction outside [0,1] or a reference to an unknown bid
type ConstraintError struct {
	Kind   ConstraintKind
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("invalid %s constraint: %s", e.Kind, e.Reason)
}

// ConstraintConflictError reports a contradictory pair of constraint
// specifications detected at build time, before any solve attempt. Reporting
// the conflict directly is a correctness requirement: submitting the model
// would only surface an unexplained infeasibility.
type ConstraintConflictError struct {
	First  ConstraintSpec
	Second ConstraintSpec
	Reason string
}

func (e *ConstraintConflictError) Error() string {
	return fmt.Sprintf("conflicting constraints %s and %s: %s", e.First.Kind, e.Second.Kind, e.Reason)
}

// ConfigurationError reports an ambiguous or missing run configuration
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// SolverError reports a backend failure. Unlike infeasibility or a timeout,
// which are ordinary statuses on the Result, a backend failure is fatal and
// carries the underlying diagnostic.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver backend failed: %v", e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}
