package bridge

// ConnectionMatchingError is returned by FindCrossLanguageConnections for
// any failure. The message is fixed; Unwrap exposes the cause.
type ConnectionMatchingError struct {
	Err error
}

func (e *ConnectionMatchingError) Error() string {
	return "failed to find cross-cultural connections"
}

func (e *ConnectionMatchingError) Unwrap() error {
	return e.Err
}
