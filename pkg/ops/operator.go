package ops

// Operator is a computation step in a graph.
//
// Implementations must be pure: the same inputs always produce the same
// output, no references to inputs are retained beyond the call, and
// malformed shapes or types are reported as errors rather than panics.
type Operator interface {
	// Name returns a display name for the operator, used in timing and
	// error output.
	Name() string

	// Run executes the operator against the inputs and returns a newly
	// allocated output.
	Run(inputs []Value) (Value, error)
}

// InPlaceOperator is implemented by operators that can overwrite their
// first input's storage to produce their output, avoiding an allocation.
//
// The executor only invokes RunInPlace when it exclusively owns the first
// input and no later step needs it; the type assertion on this interface is
// the capability test. Implementations that cannot handle a particular
// kind or shape combination destructively should fall back to Run.
type InPlaceOperator interface {
	Operator

	// RunInPlace consumes ownership of first and either mutates it into
	// the result or returns a fresh output.
	RunInPlace(first Value, rest []Value) (Value, error)
}
