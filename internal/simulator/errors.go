package simulator

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned for sends while no session is up.
	ErrNotConnected = errors.New("simulator: not connected")

	// ErrAlreadyConnected is returned when Connect is called on a live
	// session.
	ErrAlreadyConnected = errors.New("simulator: already connected")
)

// SimulatorError is a non-2xx response from the simulator. The connection
// stays up; the shot was refused at the protocol level.
type SimulatorError struct {
	Code    int
	Message string
}

func (e *SimulatorError) Error() string {
	return fmt.Sprintf("simulator: code %d: %s", e.Code, e.Message)
}
