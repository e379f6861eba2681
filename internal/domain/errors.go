package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNoProviderAvailable = errors.New("no image provider available")
	ErrInvalidRequest      = errors.New("invalid request")
)
