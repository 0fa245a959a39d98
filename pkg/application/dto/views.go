package dto

import (
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

// ShareView is one share of a property as presented to operators
type ShareView struct {
	Number    entities.ShareNumber `json:"number"`
	Period    string               `json:"period"`
	Status    entities.ShareStatus `json:"status"`
	Price     entities.Money       `json:"price"`
	OwnerID   entities.OwnerID     `json:"owner_id,omitempty"`
	OwnerName string               `json:"owner_name,omitempty"`
}

// PropertyView is a property with its derived aggregate status and the
// owners holding each share.
type PropertyView struct {
	Property         *entities.Property      `json:"property"`
	Status           entities.PropertyStatus `json:"status"`
	AgentName        string                  `json:"agent_name,omitempty"`
	CommissionAmount entities.Money          `json:"commission_amount"`
	Shares           []ShareView             `json:"share_details"`
}

// AssignmentView is a share held by an owner
type AssignmentView struct {
	Assignment   entities.ShareAssignment `json:"assignment"`
	PropertyName string                   `json:"property_name"`
	Period       string                   `json:"period"`
}

// OwnerView is an owner with the shares they hold
type OwnerView struct {
	Owner  *entities.Owner  `json:"owner"`
	Shares []AssignmentView `json:"shares"`
}

// AgentView is an agent with the number of properties referencing them
type AgentView struct {
	Agent      *entities.Agent `json:"agent"`
	Properties int             `json:"properties"`
}

// CommissionLine is the commission owed on one property
type CommissionLine struct {
	PropertyID   entities.PropertyID `json:"property_id"`
	PropertyName string              `json:"property_name"`
	AgentID      entities.AgentID    `json:"agent_id"`
	AgentName    string              `json:"agent_name"`
	TotalPrice   entities.Money      `json:"total_price"`
	Commission   entities.Commission `json:"commission"`
	Amount       entities.Money      `json:"amount"`
}

// CommissionReport lists commissions of properties that have an agent
type CommissionReport struct {
	Lines        []CommissionLine `json:"lines"`
	TotalPending entities.Money   `json:"total_pending"`
	TotalPaid    entities.Money   `json:"total_paid"`
}

// PortfolioSummary combines share statistics with directory counts
type PortfolioSummary struct {
	services.PortfolioStats
	Owners      int `json:"owners"`
	Agents      int `json:"agents"`
	Assignments int `json:"assignments"`
}

// ImportResult counts the records created by an import
type ImportResult struct {
	Agents      int `json:"agents"`
	Owners      int `json:"owners"`
	Properties  int `json:"properties"`
	Assignments int `json:"assignments"`
}

// InvoiceView is an invoice with the names of the owner and property it bills
type InvoiceView struct {
	Invoice      *entities.Invoice `json:"invoice"`
	OwnerName    string            `json:"owner_name,omitempty"`
	PropertyName string            `json:"property_name,omitempty"`
}
