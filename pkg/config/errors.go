package config

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when a registry key does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrConfigNotFound is returned when a configuration file cannot be read.
	ErrConfigNotFound = errors.New("configuration not found")
)

// Error marks a configuration failure. These are fatal for the process.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "invalid configuration: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// ParamsError reports a record whose parameters do not fit its source method.
type ParamsError struct {
	Source string
	Index  int
	Err    error
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("source %s record %d: %v", e.Source, e.Index, e.Err)
}

func (e *ParamsError) Unwrap() error { return e.Err }
