package types

import "errors"

var (
	// ErrNotFound marks a missing entity. Recoverable: callers create the
	// entity or report absence.
	ErrNotFound = errors.New("not found")

	// ErrDecrypt marks a data-integrity failure on an existing row (bad key,
	// corrupted ciphertext, tag mismatch). Never to be conflated with
	// ErrNotFound: data exists but cannot be read.
	ErrDecrypt = errors.New("decryption failed")

	// ErrInvalidReply marks a replied_to reference that is not an earlier
	// message in the same chat.
	ErrInvalidReply = errors.New("invalid reply reference")

	// ErrBudgetExceeded marks a context token budget too small to hold even
	// the system prompt plus the newest message. A configuration problem,
	// not a truncation.
	ErrBudgetExceeded = errors.New("context budget exceeded")

	// ErrLoopLimit marks a turn that exceeded the tool-call round-trip bound.
	ErrLoopLimit = errors.New("tool-call loop limit exceeded")
)
