package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/service"
	"github.com/GTDGit/repair_api/internal/utils"
)

// SettingsManager reads and replaces the global pricing settings.
type SettingsManager interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, req *service.UpdateSettingsRequest) (*models.Settings, error)
}

// SettingsHandler serves the back-office settings endpoints.
type SettingsHandler struct {
	settings SettingsManager
}

func NewSettingsHandler(settings SettingsManager) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings handles GET /v1/admin/settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved settings", s)
}

// UpdateSettings handles PUT /v1/admin/settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	s, err := h.settings.Update(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().Int("admin_id", c.GetInt("user_id")).Msg("settings changed by admin")
	utils.Success(c, http.StatusOK, "Settings updated", s)
}
