package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when a checking job is not found.
	ErrJobNotFound = errors.New("checking job not found")
	// ErrTxRequired is returned when a transactional method is called without a transaction.
	ErrTxRequired = errors.New("transaction is required")
)
