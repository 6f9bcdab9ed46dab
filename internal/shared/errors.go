package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthenticated = fmt.Errorf("not authenticated")
	ErrAuthFailed      = fmt.Errorf("authentication failed")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// Gateway errors
	ErrNotFoundOrForbidden = fmt.Errorf("not found")
	ErrRemoteUnavailable   = fmt.Errorf("remote gateway unavailable")

	// Local state errors
	ErrCacheCorrupt = fmt.Errorf("cache entry corrupt")
	ErrNotLoaded    = fmt.Errorf("data not loaded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
