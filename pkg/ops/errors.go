package ops

import "errors"

// Operator error categories. Operators signal these (usually wrapped with
// additional context via fmt.Errorf and %w) instead of panicking; callers
// match them with errors.Is. They indicate malformed model graphs or bad
// inputs, and are recoverable at the caller's discretion.
var (
	// ErrUnsupportedType indicates an input tensor of an element kind the
	// operator does not support.
	ErrUnsupportedType = errors.New("unsupported input type")

	// ErrIncompatibleShapes indicates input shapes that do not work with
	// each other or with the operator's attributes.
	ErrIncompatibleShapes = errors.New("incompatible input shapes")

	// ErrIncompatibleTypes indicates two inputs that should have the same
	// element kind but do not.
	ErrIncompatibleTypes = errors.New("incompatible input types")

	// ErrMissingInputs indicates the operator received fewer inputs than
	// it requires.
	ErrMissingInputs = errors.New("missing inputs")

	// ErrInvalidValue indicates an input or attribute with an incorrect value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedValue indicates an input or attribute value that is not
	// currently supported.
	ErrUnsupportedValue = errors.New("unsupported value")
)
