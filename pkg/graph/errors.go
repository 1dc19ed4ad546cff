package graph

import "errors"

var (
	// ErrNotFound is returned when a location or path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateNode is returned when a location name is already taken.
	ErrDuplicateNode = errors.New("location already exists")

	// ErrDuplicateEdge is returned when a path already connects the two locations.
	ErrDuplicateEdge = errors.New("path already exists")

	// ErrInvalidWeight is returned for a path weight that is not a finite positive number.
	ErrInvalidWeight = errors.New("path weight must be a positive number")

	// ErrInvalidName is returned for an empty location name.
	ErrInvalidName = errors.New("location name must not be empty")

	// ErrSelfLoop is returned when both endpoints of a path are the same location.
	ErrSelfLoop = errors.New("path endpoints must differ")
)
