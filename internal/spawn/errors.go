package spawn

// UnknownExecutorTypeError reports a profile id the registry could not
// resolve. Nothing was spawned.
type UnknownExecutorTypeError struct {
	Identifier string
}

func (e *UnknownExecutorTypeError) Error() string {
	return "unknown executor type: " + e.Identifier
}
