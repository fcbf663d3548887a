package utils

import "errors"

// Error taxonomy shared by services and handlers. Services wrap these with
// context via fmt.Errorf("...: %w", ErrX); handlers match with errors.Is.
var (
	ErrNotFound      = errors.New("NOT_FOUND")
	ErrInvalidOption = errors.New("INVALID_OPTION")
	ErrInvalidSlot   = errors.New("INVALID_SLOT")
	ErrSlotTaken     = errors.New("SLOT_TAKEN")
	// ErrUnavailable is the only retryable kind.
	ErrUnavailable = errors.New("SERVICE_UNAVAILABLE")

	ErrInvalidRequest     = errors.New("INVALID_REQUEST")
	ErrInvalidSettings    = errors.New("INVALID_SETTINGS")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrInactiveAccount    = errors.New("ACCOUNT_INACTIVE")
)

// IsRetryable reports whether the caller may retry the failed request with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
