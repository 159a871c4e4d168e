package ethercat

import "errors"

// Validator accumulates validation errors encountered while checking frame
// or register contents without panicking. Callers that only care about the
// first failure can use [Validator.HasError] and [Validator.Err]; callers
// that want every failure for diagnostics can allow multiple errors via
// [Validator.SetAllowMultiErrs] and inspect [Validator.ErrPop] in a loop.
type Validator struct {
	allowMultiErrs bool
	accum          []error
}

// SetAllowMultiErrs controls whether [Validator.AddError] accumulates every
// error it is given (true) or keeps only the first (false, the default).
func (v *Validator) SetAllowMultiErrs(allow bool) { v.allowMultiErrs = allow }

// AddError records err. With the default single-error mode, subsequent
// calls after the first recorded error are no-ops so the earliest failure
// is preserved.
func (v *Validator) AddError(err error) {
	if err == nil {
		return
	}
	if !v.allowMultiErrs && len(v.accum) > 0 {
		return
	}
	v.accum = append(v.accum, err)
}

// HasError reports whether any error has been recorded since construction
// or the last [Validator.ResetErr].
func (v *Validator) HasError() bool { return len(v.accum) > 0 }

// Err returns the recorded errors joined with [errors.Join], or nil if none
// were recorded.
func (v *Validator) Err() error {
	if len(v.accum) == 0 {
		return nil
	}
	return errors.Join(v.accum...)
}

// ErrPop returns and removes the oldest recorded error, or nil if none
// remain.
func (v *Validator) ErrPop() error {
	if len(v.accum) == 0 {
		return nil
	}
	err := v.accum[0]
	v.accum = v.accum[1:]
	return err
}

// ResetErr discards all recorded errors, readying the Validator for reuse.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}
