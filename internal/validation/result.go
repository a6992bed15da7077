package validation

// Result is the ordered list of consensus errors produced by a validation step.
// A Result with no errors is valid.
type Result struct {
	errors []ConsensusError
}

// NewResult creates a result holding the given errors.
func NewResult(errs ...ConsensusError) *Result {
	r := &Result{}
	r.AddError(errs...)
	return r
}

// AddError appends errors in order. Nil errors are ignored.
func (r *Result) AddError(errs ...ConsensusError) {
	for _, err := range errs {
		if err != nil {
			r.errors = append(r.errors, err)
		}
	}
}

// Merge appends the errors of the other results, preserving their order.
func (r *Result) Merge(others ...*Result) {
	for _, other := range others {
		if other == nil {
			continue
		}
		r.errors = append(r.errors, other.errors...)
	}
}

// IsValid reports whether the result holds no errors.
func (r *Result) IsValid() bool {
	return len(r.errors) == 0
}

// Errors returns a copy of the recorded errors.
func (r *Result) Errors() []ConsensusError {
	out := make([]ConsensusError, len(r.errors))
	copy(out, r.errors)
	return out
}

// FirstError returns the first recorded error, or nil.
func (r *Result) FirstError() ConsensusError {
	if len(r.errors) == 0 {
		return nil
	}
	return r.errors[0]
}
