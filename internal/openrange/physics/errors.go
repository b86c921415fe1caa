package physics

import "errors"

// ErrTimeout is returned when a simulation exceeds its hard time cap before
// the ball comes to rest. Inputs are deterministic; retrying cannot help.
var ErrTimeout = errors.New("physics: simulation exceeded time cap")
