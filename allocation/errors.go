// errors.go - Sentinel errors for the allocation engine.
//
// The engine is total for well-typed input: malformed business data
// degrades deterministically (see classify.go) instead of erroring.
// Only caller mistakes surface as errors.
package allocation

import "errors"

var (
	// ErrUnknownStrategy is returned when the caller selects a strategy
	// the engine does not implement.
	ErrUnknownStrategy = errors.New("unknown allocation strategy")

	// ErrNilProject is returned when the caller passes no project.
	ErrNilProject = errors.New("nil project")
)
