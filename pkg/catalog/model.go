package catalog

import (
	"github.com/google/uuid"
)

type Producer struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Country *string   `json:"country,omitempty"`
	Region  *string   `json:"region,omitempty"`
}

type Product struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Vintage    string    `json:"vintage"`
	ProducerID uuid.UUID `json:"producerId"`
}

type ProducerInput struct {
	Name    string  `json:"name"`
	Country *string `json:"country,omitempty"`
	Region  *string `json:"region,omitempty"`
}

type ProductInput struct {
	Name       string    `json:"name"`
	Vintage    string    `json:"vintage"`
	ProducerID uuid.UUID `json:"producerId"`
}

// ProductUpdate changes only the fields that are set.
type ProductUpdate struct {
	Name    *string `json:"name,omitempty"`
	Vintage *string `json:"vintage,omitempty"`
}

func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Vintage != nil {
		p.Vintage = *u.Vintage
	}
	return p
}

// optional maps an empty string to an absent value.
func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
