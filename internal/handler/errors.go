package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/repair_api/internal/utils"
)

// retryAfterSeconds is sent with every 503 so clients back off.
const retryAfterSeconds = "2"

// respondError maps a service error onto the HTTP status and error code the
// API documents. Unknown errors are logged and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, http.StatusNotFound, utils.ErrNotFound.Error(), "Resource not found")
	case errors.Is(err, utils.ErrInvalidOption):
		utils.Error(c, http.StatusBadRequest, utils.ErrInvalidOption.Error(), "Quality option is not offered for this repair")
	case errors.Is(err, utils.ErrInvalidSlot):
		utils.Error(c, http.StatusBadRequest, utils.ErrInvalidSlot.Error(), "Slot cannot be booked for this date")
	case errors.Is(err, utils.ErrSlotTaken):
		utils.Error(c, http.StatusConflict, utils.ErrSlotTaken.Error(), "Slot is already booked")
	case errors.Is(err, utils.ErrInvalidRequest):
		utils.Error(c, http.StatusBadRequest, utils.ErrInvalidRequest.Error(), err.Error())
	case errors.Is(err, utils.ErrInvalidSettings):
		utils.Error(c, http.StatusBadRequest, utils.ErrInvalidSettings.Error(), err.Error())
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.Error(c, http.StatusUnauthorized, utils.ErrInvalidCredentials.Error(), "Invalid email or password")
	case errors.Is(err, utils.ErrInactiveAccount):
		utils.Error(c, http.StatusForbidden, utils.ErrInactiveAccount.Error(), "Account is not active")
	case errors.Is(err, utils.ErrUnavailable):
		log.Warn().Err(err).Str("request_id", c.GetString("request_id")).Msg("dependency unavailable")
		c.Header("Retry-After", retryAfterSeconds)
		utils.Error(c, http.StatusServiceUnavailable, utils.ErrUnavailable.Error(), "Service temporarily unavailable, please retry")
	default:
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("unhandled error")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	utils.Error(c, http.StatusBadRequest, utils.ErrInvalidRequest.Error(), message)
}
