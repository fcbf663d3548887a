package service

import (
	"errors"

	"github.com/GTDGit/repair_api/internal/utils"
)

// resultLabel turns an outcome into a low-cardinality metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, utils.ErrNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, utils.ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, utils.ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, utils.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, utils.ErrInvalidRequest):
		return "invalid_request"
	}
	return "error"
}
