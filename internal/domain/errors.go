package domain

import "errors"

var (
	// ErrUnknownBlockType is returned for a tag outside the closed variant set.
	ErrUnknownBlockType = errors.New("unknown block type")
	// ErrUnknownField is returned when a content patch names a field the variant does not have.
	ErrUnknownField = errors.New("unknown content field")
	// ErrInvalidContent is returned when content does not decode into its variant.
	ErrInvalidContent = errors.New("invalid block content")
	// ErrInvalidDirection is returned when a reorder direction cannot be parsed.
	ErrInvalidDirection = errors.New("invalid reorder direction")
	// ErrNotFound is returned by repositories for missing rows.
	ErrNotFound = errors.New("not found")
)
