package entities

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// AgentID is the opaque identifier of an agent
type AgentID string

// Agent represents a sales agent who may be referenced by many properties
type Agent struct {
	ID        AgentID   `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	License   string    `json:"license,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAgent creates a validated Agent
func NewAgent(id AgentID, name, email string) (*Agent, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("agent id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid agent email %q", email)
	}

	return &Agent{
		ID:    id,
		Name:  name,
		Email: email,
	}, nil
}
