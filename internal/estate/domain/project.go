package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a development offered by a company, sold in phases.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CompanyID   string    `json:"companyId,omitempty"`
	City        string    `json:"city,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

type Phase struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"projectId"`
	Name        string           `json:"name"`
	Units       int              `json:"units,omitempty"`
	PriceFrom   *decimal.Decimal `json:"priceFrom,omitempty"`
	StartsAt    *time.Time       `json:"startsAt,omitempty"`
	CompletesAt *time.Time       `json:"completesAt,omitempty"`
}
