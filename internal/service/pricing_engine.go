package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/utils"
)

var hundred = decimal.NewFromInt(100)

// Discount rule conditions. An empty condition behaves like "always".
const (
	ConditionAlways      = "always"
	ConditionMinSubtotal = "min_subtotal"
	ConditionDeviceType  = "device_type"
	ConditionRepairCode  = "repair_code"
)

// DiscountCondition is a parsed DiscountRule.Condition.
type DiscountCondition struct {
	Kind     string
	Argument string
	amount   decimal.Decimal
}

// ParseDiscountCondition parses "always", "min_subtotal:<amount>",
// "device_type:<tag>" or "repair_code:<code>".
func ParseDiscountCondition(raw string) (DiscountCondition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == ConditionAlways {
		return DiscountCondition{Kind: ConditionAlways}, nil
	}

	kind, arg, ok := strings.Cut(raw, ":")
	arg = strings.TrimSpace(arg)
	if !ok || arg == "" {
		return DiscountCondition{}, fmt.Errorf("condition %q: expected <kind>:<argument>", raw)
	}

	cond := DiscountCondition{Kind: kind, Argument: arg}
	switch kind {
	case ConditionMinSubtotal:
		amount, err := decimal.NewFromString(arg)
		if err != nil || amount.IsNegative() {
			return DiscountCondition{}, fmt.Errorf("condition %q: invalid amount", raw)
		}
		cond.amount = amount
	case ConditionDeviceType:
		if !models.DeviceType(arg).Valid() {
			return DiscountCondition{}, fmt.Errorf("condition %q: unknown device type", raw)
		}
	case ConditionRepairCode:
	default:
		return DiscountCondition{}, fmt.Errorf("condition %q: unknown kind %q", raw, kind)
	}
	return cond, nil
}

// PricingInput is what the engine needs to know about the repair being priced.
type PricingInput struct {
	BaseAmount      decimal.Decimal
	Item            *models.RepairItem
	DeviceType      models.DeviceType
	QualityOptionID *string
}

// AppliedDiscount is one step of the sequential discount breakdown.
type AppliedDiscount struct {
	Index           int                 `json:"index"`
	Condition       string              `json:"condition"`
	Type            models.DiscountType `json:"type"`
	Value           decimal.Decimal     `json:"value"`
	Amount          decimal.Decimal     `json:"amount"`
	RunningSubtotal decimal.Decimal     `json:"runningSubtotal"`
}

// PriceBreakdown is the engine's output. All amounts are rounded to cents.
type PriceBreakdown struct {
	Subtotal      decimal.Decimal
	QualityOption *models.QualityOption
	Discounts     []AppliedDiscount
	DiscountTotal decimal.Decimal
	PostDiscount  decimal.Decimal
	TaxPercentage decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// PricingEngine applies the quality multiplier, the ordered discount rules
// and tax to a resolved base amount. It is a pure function of its inputs.
type PricingEngine struct{}

// NewPricingEngine constructs a PricingEngine.
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// ComputeFinal prices in under settings. Discounts apply in list order, each
// against the running subtotal left by the previous ones, and never push it
// below zero. Tax is charged on the post-discount subtotal.
func (e *PricingEngine) ComputeFinal(in PricingInput, settings *models.Settings) (*PriceBreakdown, error) {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	if settings.TaxPercentage.IsNegative() || settings.TaxPercentage.GreaterThan(hundred) {
		return nil, fmt.Errorf("stored tax percentage %s is outside 0-100", settings.TaxPercentage)
	}

	out := &PriceBreakdown{
		Subtotal:      utils.Round2(in.BaseAmount),
		Discounts:     []AppliedDiscount{},
		TaxPercentage: settings.TaxPercentage,
	}

	if in.QualityOptionID != nil && *in.QualityOptionID != "" {
		opt, err := qualityOption(in.Item, *in.QualityOptionID)
		if err != nil {
			return nil, err
		}
		out.QualityOption = opt
		out.Subtotal = utils.Round2(in.BaseAmount.Mul(opt.Multiplier))
	}

	running := out.Subtotal
	for i, rule := range settings.DiscountRules {
		if !e.applies(rule, running, in) {
			continue
		}

		var amount decimal.Decimal
		switch rule.Type {
		case models.DiscountPercentage:
			if rule.Value.IsNegative() || rule.Value.GreaterThan(hundred) {
				log.Warn().Int("rule", i).Str("value", rule.Value.String()).Msg("skipping percentage discount out of range")
				continue
			}
			amount = utils.Percent(running, rule.Value)
		case models.DiscountFixed:
			if rule.Value.IsNegative() {
				log.Warn().Int("rule", i).Str("value", rule.Value.String()).Msg("skipping negative fixed discount")
				continue
			}
			amount = utils.Round2(rule.Value)
		default:
			log.Warn().Int("rule", i).Str("type", string(rule.Type)).Msg("skipping discount with unknown type")
			continue
		}

		if amount.GreaterThan(running) {
			amount = running
		}
		running = running.Sub(amount)

		out.Discounts = append(out.Discounts, AppliedDiscount{
			Index:           i,
			Condition:       rule.Condition,
			Type:            rule.Type,
			Value:           rule.Value,
			Amount:          amount,
			RunningSubtotal: running,
		})
	}

	out.PostDiscount = running
	out.DiscountTotal = out.Subtotal.Sub(running)
	out.TaxAmount = utils.Percent(running, settings.TaxPercentage)
	out.Total = utils.Round2(running.Add(out.TaxAmount))
	return out, nil
}

func (e *PricingEngine) applies(rule models.DiscountRule, running decimal.Decimal, in PricingInput) bool {
	cond, err := ParseDiscountCondition(rule.Condition)
	if err != nil {
		log.Warn().Err(err).Msg("discount condition never applies")
		return false
	}

	switch cond.Kind {
	case ConditionAlways:
		return true
	case ConditionMinSubtotal:
		return running.GreaterThanOrEqual(cond.amount)
	case ConditionDeviceType:
		return models.DeviceType(cond.Argument) == in.DeviceType
	case ConditionRepairCode:
		return in.Item != nil && in.Item.Code == cond.Argument
	}
	return false
}

// qualityOption looks the option up on the same item that produced the base
// amount.
func qualityOption(item *models.RepairItem, id string) (*models.QualityOption, error) {
	if item == nil || !item.HasQualityOptions {
		return nil, fmt.Errorf("repair item has no quality options: %w", utils.ErrInvalidOption)
	}
	opt, ok := item.QualityOptions.Find(id)
	if !ok {
		return nil, fmt.Errorf("quality option %q not offered for %s: %w", id, item.Code, utils.ErrInvalidOption)
	}
	if opt.Multiplier.IsNegative() {
		return nil, fmt.Errorf("quality option %q has a negative multiplier: %w", id, utils.ErrInvalidOption)
	}
	return opt, nil
}
