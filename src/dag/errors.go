package dag

import "fmt"

// ComposeErrType classifies the failures of a composition.
type ComposeErrType uint32

const (
	// NoCompatibleParents means neither free nor deep units are compatible
	// with the witness list.
	NoCompatibleParents ComposeErrType = iota
	// NoStableBall means no stable main chain unit is compatible with the
	// witness list.
	NoStableBall
	// ExcessiveWitnessMutation means the main chain between the last stable
	// ball and the new unit crosses too many witness list mutations.
	ExcessiveWitnessMutation
	// InvalidWitnessList means the witness list itself is malformed.
	InvalidWitnessList
)

func (t ComposeErrType) String() string {
	switch t {
	case NoCompatibleParents:
		return "no compatible parents"
	case NoStableBall:
		return "no stable ball"
	case ExcessiveWitnessMutation:
		return "excessive witness list mutation"
	case InvalidWitnessList:
		return "invalid witness list"
	default:
		return "unknown"
	}
}

// ComposeError is returned when parents or the last ball cannot be chosen.
// These failures depend on the state of the DAG and are never retried here.
type ComposeError struct {
	Kind ComposeErrType
	Msg  string
}

// Sentinels for errors.Is.
var (
	ErrNoCompatibleParents      = &ComposeError{Kind: NoCompatibleParents}
	ErrNoStableBall             = &ComposeError{Kind: NoStableBall}
	ErrExcessiveWitnessMutation = &ComposeError{Kind: ExcessiveWitnessMutation}
	ErrInvalidWitnessList       = &ComposeError{Kind: InvalidWitnessList}
)

func newComposeError(kind ComposeErrType, format string, args ...interface{}) *ComposeError {
	return &ComposeError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ComposeError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is makes errors.Is match on the kind only.
func (e *ComposeError) Is(target error) bool {
	t, ok := target.(*ComposeError)
	return ok && t.Kind == e.Kind
}

// IsComposeError checks that err is a ComposeError of the given kind.
func IsComposeError(err error, kind ComposeErrType) bool {
	ce, ok := err.(*ComposeError)
	return ok && ce.Kind == kind
}
