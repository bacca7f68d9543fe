package sink

import "errors"

var (
	// ErrClosed is returned when publishing through a closed publisher.
	ErrClosed = errors.New("sink closed")
	ErrDial   = errors.New("sink dial failed")
)
