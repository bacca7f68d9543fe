package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoSource   = errors.New("service has no source")
	ErrNoPipeline = errors.New("service has no detectors or analyzer")
	ErrStopped    = errors.New("service cannot be restarted")
)
