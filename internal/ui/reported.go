package ui

import "errors"

// reportedError is a failure whose explanation the user has already seen.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported marks err as already explained to the user, so the top level
// only sets the exit status. A nil err stays nil.
func Reported(err error) error {
	if err == nil || WasReported(err) {
		return err
	}
	return reportedError{err}
}

// WasReported reports whether err, or any error it wraps, was marked by
// Reported or Fail.
func WasReported(err error) bool {
	var re reportedError
	return errors.As(err, &re)
}

// Fail prints an error line and returns err marked as reported.
func (r *Reporter) Fail(err error, format string, args ...any) error {
	r.Error(format, args...)
	return Reported(err)
}
