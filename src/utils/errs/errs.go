package errs

import "errors"

// Three kinds of failure move through the relayer. Rejections are final
// verdicts from a chain program or the signing network (already minted,
// registry closed, oversized fields), retrying cannot change them.
// Recoverable errors are transient (RPC hiccups, timeouts, lock contention)
// and the work should be requeued. Fatal errors mean the process is
// misconfigured and should not keep running.

type RejectionError struct {
	Err error
}

func (e *RejectionError) Error() string { return "rejected: " + e.Err.Error() }
func (e *RejectionError) Unwrap() error { return e.Err }

type RecoverableError struct {
	Err error
}

func (e *RecoverableError) Error() string { return "recoverable: " + e.Err.Error() }
func (e *RecoverableError) Unwrap() error { return e.Err }

type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

func Rejection(err error) error {
	if err == nil {
		return nil
	}
	return &RejectionError{Err: err}
}

func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &RecoverableError{Err: err}
}

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsRejection(err error) bool {
	var target *RejectionError
	return errors.As(err, &target)
}

func IsRecoverable(err error) bool {
	var target *RecoverableError
	return errors.As(err, &target)
}

func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}
