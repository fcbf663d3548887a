package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DeviceType tags which kind of device a brand, model or repair applies to.
type DeviceType string

const (
	DeviceTypeSmartphone DeviceType = "smartphone"
	DeviceTypeTablet     DeviceType = "tablet"
	DeviceTypeLaptop     DeviceType = "laptop"
)

// Valid reports whether t is one of the supported device types.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeSmartphone, DeviceTypeTablet, DeviceTypeLaptop:
		return true
	}
	return false
}

// DeviceTypes is a TEXT[] column of device type tags.
type DeviceTypes = pq.StringArray

// HasDeviceType reports whether tags contains t.
func HasDeviceType(tags DeviceTypes, t DeviceType) bool {
	for _, tag := range tags {
		if DeviceType(tag) == t {
			return true
		}
	}
	return false
}

// Brand is a device manufacturer.
type Brand struct {
	ID          int         `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	DeviceTypes DeviceTypes `db:"device_types" json:"deviceTypes"`
	IsActive    bool        `db:"is_active" json:"isActive"`
	CreatedAt   time.Time   `db:"created_at" json:"-"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// ColorOption is one selectable device color.
type ColorOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"` // hex, e.g. "#1d1d1f"
}

// ColorOptions is stored as JSONB, order preserved.
type ColorOptions []ColorOption

// Value implements driver.Valuer for database storage
func (c ColorOptions) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for database retrieval
func (c *ColorOptions) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan ColorOptions")
	}
	return json.Unmarshal(bytes, c)
}

// DeviceModel is a concrete device, e.g. "iPhone 13".
type DeviceModel struct {
	ID         int            `db:"id" json:"id"`
	BrandID    int            `db:"brand_id" json:"brandId"`
	Name       string         `db:"name" json:"name"`
	DeviceType DeviceType     `db:"device_type" json:"deviceType"`
	Variants   pq.StringArray `db:"variants" json:"variants"`
	Colors     ColorOptions   `db:"colors" json:"colors"`
	IsActive   bool           `db:"is_active" json:"isActive"`
	CreatedAt  time.Time      `db:"created_at" json:"-"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// QualityOption is a part-quality tier of a repair item.
type QualityOption struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"durationMinutes"`
	Description     string          `json:"description"`
	Multiplier      decimal.Decimal `json:"multiplier"`
}

// QualityOptions is stored as JSONB, order preserved.
type QualityOptions []QualityOption

// Value implements driver.Valuer for database storage
func (q QualityOptions) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner for database retrieval
func (q *QualityOptions) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan QualityOptions")
	}
	return json.Unmarshal(bytes, q)
}

// Find returns the option with the given id.
func (q QualityOptions) Find(id string) (*QualityOption, bool) {
	for i := range q {
		if q[i].ID == id {
			return &q[i], true
		}
	}
	return nil, false
}

// RepairItem is a repair service offered for one or more device types.
type RepairItem struct {
	ID                int             `db:"id" json:"id"`
	Code              string          `db:"code" json:"code"`
	Name              string          `db:"name" json:"name"`
	DeviceTypes       DeviceTypes     `db:"device_types" json:"deviceTypes"`
	BasePrice         decimal.Decimal `db:"base_price" json:"basePrice"`
	DurationMinutes   int             `db:"duration_minutes" json:"durationMinutes"`
	HasQualityOptions bool            `db:"has_quality_options" json:"hasQualityOptions"`
	QualityOptions    QualityOptions  `db:"quality_options" json:"qualityOptions,omitempty"`
	IsActive          bool            `db:"is_active" json:"isActive"`
	CreatedAt         time.Time       `db:"created_at" json:"-"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// AppliesTo reports whether the item can be performed on the given device type.
func (r *RepairItem) AppliesTo(t DeviceType) bool {
	return HasDeviceType(r.DeviceTypes, t)
}

// ModelRepairPricing overrides a repair item's base price for one device model.
// At most one active row exists per (DeviceModelID, RepairItemID).
type ModelRepairPricing struct {
	ID              int             `db:"id" json:"id"`
	DeviceModelID   int             `db:"device_model_id" json:"deviceModelId"`
	RepairItemID    int             `db:"repair_item_id" json:"repairItemId"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"durationMinutes"`
	IsActive        bool            `db:"is_active" json:"isActive"`
	CreatedAt       time.Time       `db:"created_at" json:"-"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}
