package domain

import "errors"

var (
	// ErrInvalidArgument is returned when a value is outside its enumeration.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when an operation does not fit the quiz lifecycle.
	ErrInvalidState = errors.New("invalid state")
	// ErrSessionNotFound is returned when a player session has not been created.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCityNotFound is returned by catalog lookups for unknown names.
	ErrCityNotFound = errors.New("city not found")
	// ErrCatalogNotFound indicates the catalog content could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
)
