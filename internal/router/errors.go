package router

import (
	"errors"
	"fmt"
)

var (
	ErrNoRemoteSink = errors.New("router: no remote sink configured")
	ErrNoLocalSink  = errors.New("router: no local sink configured")
)

// UnknownModeError reports a mode outside the known destinations.
type UnknownModeError struct {
	Mode Mode
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("router: unknown mode %q", string(e.Mode))
}
