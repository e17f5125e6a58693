package core

// retryPolicy repeats an operation while it fails with ErrNoAck
type retryPolicy struct {
	attempts int
}

// do calls fn with attempt numbers starting at 1. Errors other than
// ErrNoAck are returned at once; the last ErrNoAck is returned when every
// attempt was used.
func (p retryPolicy) do(fn func(attempt int) error) error {
	n := p.attempts
	if n < 1 {
		n = 1
	}
	var err error
	for attempt := 1; attempt <= n; attempt++ {
		err = fn(attempt)
		if err != ErrNoAck {
			return err
		}
	}
	return err
}
