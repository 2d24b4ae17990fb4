package domain

import "errors"

var (
	ErrNilEntry         = errors.New("nil_entry")
	ErrMissingOperation = errors.New("missing_operation")
	ErrMissingSessionID = errors.New("missing_session_id")
)
