package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidPlaylistRef = fmt.Errorf("invalid playlist reference")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("unauthorized")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrMalformedPayload = fmt.Errorf("malformed response payload")
	ErrPlaylistTooLarge = fmt.Errorf("playlist exceeds pagination safety ceiling")

	// Persistence errors
	ErrNotFound  = fmt.Errorf("record not found")
	ErrDuplicate = fmt.Errorf("record already exists")

	// Input validation errors
	ErrInvalidInput = fmt.Errorf("invalid input")
)
