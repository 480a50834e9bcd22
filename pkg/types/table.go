package types

import "errors"

// Table operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
)

// Entity and flow errors.
var (
	ErrUnknownPreference = errors.New("unknown preference field")
	ErrNotOnboarded      = errors.New("user is not onboarded")
	ErrMissingField      = errors.New("required field is empty")
	ErrInvalidFilter     = errors.New("invalid filter value")
)
