package core

import "errors"

var (
	// ErrInvalidArg reports a bad pin, an unknown enumeration value or a request the
	// hardware cannot honour (output on an input-only pin, edge wake-up, empty mask).
	ErrInvalidArg = errors.New("invalid argument")

	// ErrNotInitialized reports that the controller lock does not exist
	ErrNotInitialized = errors.New("gpio controller not initialized")
)

// PinError records the operation and pin that failed
type PinError struct {
	Op  string
	Pin Pin
	Err error
}

func (e *PinError) Error() string {
	return "gpio " + e.Op + " " + PinName(e.Pin) + ": " + e.Err.Error()
}

func (e *PinError) Unwrap() error {
	return e.Err
}

func pinErr(op string, pin Pin, err error) error {
	return &PinError{Op: op, Pin: pin, Err: err}
}

// opError is returned by operations that are not tied to one pin
type opError struct {
	op  string
	msg string
	err error
}

func (e *opError) Error() string {
	if e.msg == "" {
		return "gpio " + e.op + ": " + e.err.Error()
	}
	return "gpio " + e.op + ": " + e.msg + ": " + e.err.Error()
}

func (e *opError) Unwrap() error {
	return e.err
}
