package domain

import "time"

type Inquiry struct {
	ID         string    `json:"id,omitempty"`
	PropertyID string    `json:"propertyId" validate:"required"`
	Name       string    `json:"name"       validate:"required,max=120"`
	Email      string    `json:"email"      validate:"required,email"`
	Phone      string    `json:"phone,omitempty" validate:"omitempty,e164"`
	Message    string    `json:"message"    validate:"required,max=2000"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

type VisitStatus string

const (
	VisitRequested VisitStatus = "REQUESTED"
	VisitConfirmed VisitStatus = "CONFIRMED"
	VisitCancelled VisitStatus = "CANCELLED"
)

// Visit is a viewing appointment for a property.
type Visit struct {
	ID         string      `json:"id,omitempty"`
	PropertyID string      `json:"propertyId"  validate:"required"`
	At         time.Time   `json:"scheduledAt" validate:"required,future"`
	Name       string      `json:"name"        validate:"required,max=120"`
	Email      string      `json:"email"       validate:"required,email"`
	Phone      string      `json:"phone,omitempty" validate:"omitempty,e164"`
	Notes      string      `json:"notes,omitempty" validate:"max=1000"`
	Status     VisitStatus `json:"status,omitempty"`
}
