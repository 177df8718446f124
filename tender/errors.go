package tender

import "errors"

// ErrNotFound indicates the requested tender does not exist.
// It is fatal for the request and surfaced to the caller.
var ErrNotFound = errors.New("tender not found")

// ErrEmptyProposal indicates the extracted proposal text is empty or too
// short to validate. It is fatal for the request (bad request).
var ErrEmptyProposal = errors.New("proposal text is empty or too short")
