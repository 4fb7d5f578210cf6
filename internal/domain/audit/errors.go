package audit

import "errors"

var (
	ErrSampleRefRequired = errors.New("sample ref is required")
	ErrInvalidSampleRef  = errors.New("invalid sample ref")
	ErrUnknownStatus     = errors.New("unknown sample status")

	// ErrInvalidState: the requested transition is not legal from the
	// sample's current status. Nothing was changed.
	ErrInvalidState = errors.New("transition not allowed from current status")

	// ErrNotEligible: the target auditor is inactive or lacks the audit
	// capability.
	ErrNotEligible = errors.New("auditor is not eligible")

	// ErrValidation covers rejected input: empty skip reason, fully empty
	// draft, missing mandatory answers on completion.
	ErrValidation = errors.New("validation failed")

	ErrFormNotFound = errors.New("form definition not found")
)
