package crm

import "errors"

var (
	// ErrNotFound is returned when an operation references a contact id
	// that is not in the directory.
	ErrNotFound = errors.New("contact not found")

	// ErrDuplicateID is returned when a load contains two contacts with the same id.
	ErrDuplicateID = errors.New("duplicate contact id")

	// ErrInvalidEnum is returned when a tag falls outside its closed set.
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrMalformedContact is returned when a contact fails validation.
	ErrMalformedContact = errors.New("malformed contact")
)
