// Package policies manages the insurance policy catalog.
package policies

import "time"

// Policy represents a product in the catalog.
type Policy struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Details       string    `json:"details"`
	ImageURL      string    `json:"image"`
	Coverage      string    `json:"coverage"`
	Term          string    `json:"term"`
	BasePremium   int64     `json:"basePremium"`
	PurchaseCount int64     `json:"purchaseCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}
