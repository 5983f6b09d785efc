package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "AVAILABLE"
	PropertyReserved  PropertyStatus = "RESERVED"
	PropertySold      PropertyStatus = "SOLD"
)

type Property struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"` // apartment, villa, land, ...
	City        string          `json:"city"`
	Address     string          `json:"address,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty"`
	Bedrooms    int             `json:"bedrooms,omitempty"`
	Bathrooms   int             `json:"bathrooms,omitempty"`
	AreaSqm     decimal.Decimal `json:"area,omitzero"`
	Status      PropertyStatus  `json:"status,omitempty"`
	AgentID     string          `json:"agentId,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
	Images      []string        `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
}

// PropertyQuery filters a property listing. Zero fields are not sent.
type PropertyQuery struct {
	City     string `validate:"omitempty,max=80"`
	Type     string `validate:"omitempty,max=40"`
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int `validate:"gte=0"`
	Size     int `validate:"gte=0,lte=100"`
}
