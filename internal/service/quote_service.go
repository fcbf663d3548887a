package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/repair_api/internal/utils"
	"github.com/GTDGit/repair_api/pkg/metrics"
)

// QuoteRequest is the input of GetQuote.
type QuoteRequest struct {
	ModelID         int     `json:"modelId" binding:"required,min=1"`
	RepairItemID    int     `json:"repairItemId" binding:"required,min=1"`
	QualityOptionID *string `json:"qualityOptionId"`
}

// Quote is the all-or-nothing price breakdown for one repair selection.
type Quote struct {
	ModelID         int
	RepairItemID    int
	RepairCode      string
	QualityOptionID *string
	Source          PriceSource
	BaseAmount      decimal.Decimal
	Subtotal        decimal.Decimal
	Discounts       []AppliedDiscount
	DiscountTotal   decimal.Decimal
	TaxPercentage   decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	DurationMinutes int
}

// DiscountResponse is one discount step with fixed-point amounts.
type DiscountResponse struct {
	Index           int    `json:"index"`
	Condition       string `json:"condition"`
	Type            string `json:"type"`
	Value           string `json:"value"`
	Amount          string `json:"amount"`
	RunningSubtotal string `json:"runningSubtotal"`
}

// QuoteResponse is the outward-facing payload; money is serialized as
// fixed-point strings with two decimals.
type QuoteResponse struct {
	ModelID         int                `json:"modelId"`
	RepairItemID    int                `json:"repairItemId"`
	RepairCode      string             `json:"repairCode"`
	QualityOptionID *string            `json:"qualityOptionId,omitempty"`
	Source          string             `json:"source"`
	BaseAmount      string             `json:"baseAmount"`
	Subtotal        string             `json:"subtotal"`
	DiscountApplied []DiscountResponse `json:"discountApplied"`
	DiscountTotal   string             `json:"discountTotal"`
	TaxPercentage   string             `json:"taxPercentage"`
	TaxAmount       string             `json:"taxAmount"`
	Total           string             `json:"total"`
	Currency        string             `json:"currency"`
	DurationMinutes int                `json:"durationMinutes"`
}

// ToResponse renders q for the API.
func (q *Quote) ToResponse() QuoteResponse {
	discounts := make([]DiscountResponse, 0, len(q.Discounts))
	for _, d := range q.Discounts {
		discounts = append(discounts, DiscountResponse{
			Index:           d.Index,
			Condition:       d.Condition,
			Type:            string(d.Type),
			Value:           d.Value.String(),
			Amount:          d.Amount.StringFixed(2),
			RunningSubtotal: d.RunningSubtotal.StringFixed(2),
		})
	}
	return QuoteResponse{
		ModelID:         q.ModelID,
		RepairItemID:    q.RepairItemID,
		RepairCode:      q.RepairCode,
		QualityOptionID: q.QualityOptionID,
		Source:          string(q.Source),
		BaseAmount:      q.BaseAmount.StringFixed(2),
		Subtotal:        q.Subtotal.StringFixed(2),
		DiscountApplied: discounts,
		DiscountTotal:   q.DiscountTotal.StringFixed(2),
		TaxPercentage:   q.TaxPercentage.String(),
		TaxAmount:       q.TaxAmount.StringFixed(2),
		Total:           q.Total.StringFixed(2),
		Currency:        q.Currency,
		DurationMinutes: q.DurationMinutes,
	}
}

// QuoteService orchestrates the catalog resolver and the pricing engine.
type QuoteService struct {
	resolver *CatalogResolver
	engine   *PricingEngine
	settings SettingsReader
}

// NewQuoteService constructs a QuoteService.
func NewQuoteService(resolver *CatalogResolver, engine *PricingEngine, settings SettingsReader) *QuoteService {
	return &QuoteService{resolver: resolver, engine: engine, settings: settings}
}

// GetQuote resolves the base price, reads settings fresh and prices the
// repair. Either a complete quote or an error is returned.
func (s *QuoteService) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	quote, err := s.getQuote(ctx, req)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(resultLabel(err)).Inc()
		log.Debug().Err(err).
			Int("model_id", req.ModelID).
			Int("repair_item_id", req.RepairItemID).
			Msg("quote failed")
		return nil, err
	}
	metrics.QuotesTotal.WithLabelValues("success").Inc()
	return quote, nil
}

func (s *QuoteService) getQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	resolved, err := s.resolver.ResolvePrice(ctx, req.ModelID, req.RepairItemID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w: %w", utils.ErrUnavailable, err)
	}

	breakdown, err := s.engine.ComputeFinal(PricingInput{
		BaseAmount:      resolved.BaseAmount,
		Item:            resolved.Item,
		DeviceType:      resolved.Model.DeviceType,
		QualityOptionID: req.QualityOptionID,
	}, settings)
	if err != nil {
		return nil, err
	}

	duration := resolved.DurationMinutes()
	if breakdown.QualityOption != nil && breakdown.QualityOption.DurationMinutes > 0 {
		duration = breakdown.QualityOption.DurationMinutes
	}

	var optionID *string
	if breakdown.QualityOption != nil {
		id := breakdown.QualityOption.ID
		optionID = &id
	}

	return &Quote{
		ModelID:         resolved.Model.ID,
		RepairItemID:    resolved.Item.ID,
		RepairCode:      resolved.Item.Code,
		QualityOptionID: optionID,
		Source:          resolved.Source,
		BaseAmount:      utils.Round2(resolved.BaseAmount),
		Subtotal:        breakdown.Subtotal,
		Discounts:       breakdown.Discounts,
		DiscountTotal:   breakdown.DiscountTotal,
		TaxPercentage:   breakdown.TaxPercentage,
		TaxAmount:       breakdown.TaxAmount,
		Total:           breakdown.Total,
		Currency:        settings.Currency,
		DurationMinutes: duration,
	}, nil
}
