package config

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMetricsAddr is returned when the metrics listener address is blank.
	ErrEmptyMetricsAddr = errors.New("metrics_addr must not be empty")
)

func wrapLoadError(err error) error {
	return fmt.Errorf("config load: %w", err)
}
