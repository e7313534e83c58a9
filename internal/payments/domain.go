// Package payments records premium payments and brokers Stripe intents.
package payments

import (
	"time"

	"github.com/google/uuid"
)

// Payment is a completed premium payment for an application.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	TransactionID string    `json:"transactionId"`
	PayerEmail    string    `json:"payerEmail"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	ApplicationID uuid.UUID `json:"applicationId"`
	PolicyTitle   string    `json:"policyTitle"`
	PaidAt        time.Time `json:"paidAt"`
}
