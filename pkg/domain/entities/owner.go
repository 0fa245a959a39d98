package entities

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// OwnerID is the opaque identifier of an owner
type OwnerID string

// Owner represents a co-owner who can hold property shares
type Owner struct {
	ID         OwnerID   `json:"id"`
	FirstName  string    `json:"first_name"`
	LastNames  string    `json:"last_names"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Address    Address   `json:"address"`
	BirthDate  string    `json:"birth_date,omitempty"`
	Occupation string    `json:"occupation,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewOwner creates a validated Owner
func NewOwner(id OwnerID, firstName, lastNames, email string) (*Owner, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("owner id cannot be empty")
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, fmt.Errorf("owner first name cannot be empty")
	}
	if strings.TrimSpace(lastNames) == "" {
		return nil, fmt.Errorf("owner last names cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid owner email %q", email)
	}

	return &Owner{
		ID:        id,
		FirstName: firstName,
		LastNames: lastNames,
		Email:     email,
	}, nil
}

// FullName returns first name and last names joined
func (o *Owner) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastNames)
}
