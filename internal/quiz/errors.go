package quiz

import "errors"

// Session errors. Operations wrap them with detail, match with errors.Is.
var (
	// ErrInvalidArgument reports malformed input, such as an option index out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState reports an operation whose preconditions do not hold.
	ErrInvalidState = errors.New("invalid state")
)
