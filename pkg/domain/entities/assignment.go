package entities

import "time"

// ShareKey identifies a single share across all properties
type ShareKey struct {
	PropertyID  PropertyID  `json:"property_id"`
	ShareNumber ShareNumber `json:"share_number"`
}

func (k ShareKey) String() string {
	return string(k.PropertyID) + "#" + k.ShareNumber.String()
}

// ShareAssignment records that an owner holds a share of a property
type ShareAssignment struct {
	OwnerID       OwnerID     `json:"owner_id"`
	PropertyID    PropertyID  `json:"property_id"`
	ShareNumber   ShareNumber `json:"share_number"`
	PurchasePrice Money       `json:"purchase_price"`
	AssignedAt    time.Time   `json:"assigned_at"`
}

// Key returns the share the assignment refers to
func (a ShareAssignment) Key() ShareKey {
	return ShareKey{PropertyID: a.PropertyID, ShareNumber: a.ShareNumber}
}
