package sorter

import "errors"

var (
	// ErrRunInProgress indicates another autolist process holds the run lock.
	ErrRunInProgress = errors.New("sorter: another run is already in progress")

	// ErrNoRules indicates the configuration carries no sorting rules.
	ErrNoRules = errors.New("sorter: no sorting rules configured")
)
