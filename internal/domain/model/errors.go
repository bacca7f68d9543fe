package model

import "errors"

// Error kinds shared by the processing core. Wrap with %w and test with errors.Is.
var (
	// ErrConfiguration reports invalid parameters at construction time.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedSample reports a sample block that does not fit the configured channels.
	ErrMalformedSample = errors.New("malformed sample")
	// ErrNumerical reports input a numerical routine cannot handle.
	ErrNumerical = errors.New("numerical error")
)
