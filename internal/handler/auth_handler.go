package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/utils"
)

// Authenticator issues back-office tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	authService Authenticator
}

func NewAuthHandler(authService Authenticator) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
	})
}
