package builder

import "errors"

// Fatal error taxonomy. All of these abort the in-flight attempt;
// none of them surface a partial block. Per-transaction faults are recovered
// locally inside the packing loop and the inclusion-list pass and never
// reach the caller as one of these.
var (
	// ErrProvider indicates the state snapshot for the parent hash could
	// not be obtained.
	ErrProvider = errors.New("builder: state provider error")

	// ErrInternal indicates a system-contract call, requests parsing,
	// withdrawals commit, or state-root computation failed.
	ErrInternal = errors.New("builder: internal error")

	// ErrEvmExecution indicates a non-transaction-level EVM error (database
	// failure, halted handler) was returned while executing a transaction.
	ErrEvmExecution = errors.New("builder: evm execution error")

	// ErrOther indicates block-environment construction or blob-sidecar
	// retrieval failed.
	ErrOther = errors.New("builder: other error")

	// ErrMissingPayload indicates the empty-payload path produced no
	// payload at all; this should be unreachable outside of a fatal path
	// the caller has chosen to swallow.
	ErrMissingPayload = errors.New("builder: missing payload")

	// errCancelled is returned internally to unwind a build attempt once
	// cancellation has been observed; it never reaches the caller, who
	// instead sees Outcome.Cancelled.
	errCancelled = errors.New("builder: cancelled")
)

// fatalError wraps err with one of the taxonomy sentinels above so callers can
// use errors.Is(err, builder.ErrProvider) and friends, while errors.Unwrap
// still reaches the underlying cause.
type fatalError struct {
	kind error
	err  error
}

func (f *fatalError) Error() string { return f.kind.Error() + ": " + f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }
func (f *fatalError) Is(target error) bool {
	return target == f.kind
}

func wrapFatal(kind, err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{kind: kind, err: err}
}
