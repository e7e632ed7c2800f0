package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and dispatchers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not business-rule failures:
// - ErrNotFound: record does not exist in the store
// - ErrUnavailable: store or broker could not be reached
//
// For transfer pre-condition failures, use the validator's messages instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
