package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/service"
	"github.com/GTDGit/repair_api/internal/utils"
)

// QuoteGetter prices a repair selection.
type QuoteGetter interface {
	GetQuote(ctx context.Context, req *service.QuoteRequest) (*service.Quote, error)
}

type QuoteHandler struct {
	quotes QuoteGetter
}

func NewQuoteHandler(quotes QuoteGetter) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// CreateQuote handles POST /v1/quotes.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "modelId and repairItemId are required positive integers")
		return
	}

	quote, err := h.quotes.GetQuote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, "Quote computed", quote.ToResponse())
}
