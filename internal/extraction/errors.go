package extraction

import "fmt"

// Kind classifies extraction failures so callers can report them precisely.
type Kind string

const (
	// KindConfig means credentials or provider configuration are missing.
	KindConfig Kind = "config"
	// KindTransport means the network round trip to the provider failed.
	KindTransport Kind = "transport"
	// KindService means the provider reported a failure or returned no usable
	// candidates.
	KindService Kind = "service"
	// KindMalformed means the call succeeded but the output could not be
	// parsed into a schema-conformant candidate.
	KindMalformed Kind = "malformed"
)

// Error is a typed extraction failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
