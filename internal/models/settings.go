package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates how a discount rule changes the running subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// DiscountRule is one entry of the global, ordered discount list.
type DiscountRule struct {
	Condition string          `json:"condition"`
	Type      DiscountType    `json:"type"`
	Value     decimal.Decimal `json:"value"`
}

// DiscountRules is stored as JSONB, order preserved.
type DiscountRules []DiscountRule

// Value implements driver.Valuer for database storage
func (d DiscountRules) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for database retrieval
func (d *DiscountRules) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan DiscountRules")
	}
	return json.Unmarshal(bytes, d)
}

// DefaultCurrency is used when no settings row exists yet.
const DefaultCurrency = "IDR"

// Settings is the global pricing configuration (single row).
type Settings struct {
	ID            int             `db:"id" json:"-"`
	TaxPercentage decimal.Decimal `db:"tax_percentage" json:"taxPercentage"`
	DiscountRules DiscountRules   `db:"discount_rules" json:"discountRules"`
	Currency      string          `db:"currency" json:"currency"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// DefaultSettings returns the settings in effect before an administrator
// saves any: zero tax and no discount rules.
func DefaultSettings() *Settings {
	return &Settings{
		ID:            1,
		TaxPercentage: decimal.Zero,
		DiscountRules: DiscountRules{},
		Currency:      DefaultCurrency,
	}
}
