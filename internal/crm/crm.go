// Package crm defines the contact capability the push service needs from a
// CRM, plus an in-memory implementation used in development and tests.
package crm

import (
	"context"
	"errors"
	"fmt"
)

var ErrContactNotFound = errors.New("contact not found")

// Properties are the contact fields synchronized with the CRM. An empty
// string means the field is absent.
type Properties struct {
	FirstName  string `json:"firstname,omitempty"`
	LastName   string `json:"lastname,omitempty"`
	Email      string `json:"email,omitempty"`
	LinkedInID string `json:"linkedin_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Company    string `json:"company,omitempty"`
}

// Contact is a remote CRM record.
type Contact struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// Client is implemented by every CRM backend.
type Client interface {
	GetAllContacts(ctx context.Context) ([]Contact, error)
	CreateContact(ctx context.Context, props Properties) (Contact, error)
	UpdateContact(ctx context.Context, id string, props Properties) (Contact, error)
}

// APIError is returned for non-2xx CRM responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HubSpot API error: %d %s", e.Status, e.Message)
}

// FillFrom returns p with every empty field taken from fallback.
func (p Properties) FillFrom(fallback Properties) Properties {
	return Properties{
		FirstName:  firstNonEmpty(p.FirstName, fallback.FirstName),
		LastName:   firstNonEmpty(p.LastName, fallback.LastName),
		Email:      firstNonEmpty(p.Email, fallback.Email),
		LinkedInID: firstNonEmpty(p.LinkedInID, fallback.LinkedInID),
		Phone:      firstNonEmpty(p.Phone, fallback.Phone),
		Company:    firstNonEmpty(p.Company, fallback.Company),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
