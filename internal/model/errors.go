package model

import "errors"

// Sentinel errors for the tracking engine. Components return these (usually
// wrapped with fmt.Errorf and %w) so callers can classify failures with
// errors.Is without parsing messages.
//
// - ErrNotInitialized: the service is not in the Ready state
// - ErrNotFound: unknown product or alert id
// - ErrValidation: bad input (negative price, no notify flags, empty history)
// - ErrInvalidTransition: illegal alert status change
// - ErrPersistence: snapshot save/load failure; non-fatal on load,
//   surfaced on save (the in-memory mutation has already happened)
// - ErrOracle: price oracle failure, surfaced per entry in a batch
var (
	ErrNotInitialized    = errors.New("service not initialized")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersistence       = errors.New("persistence failure")
	ErrOracle            = errors.New("price oracle failure")
)
