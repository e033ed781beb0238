// Package common defines sentinel errors shared across the upload server and
// the metadata consumer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository/store-level errors.
	ErrorNotFound = errors.New("not found")

	// Generic internal failure surfaced when the concrete cause must not
	// leak to the caller.
	ErrorInternal = errors.New("internal error")
)
