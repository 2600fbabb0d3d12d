package ledger

import "time"

// Status is the lifecycle state of a payment intent.
//
// Transitions are monotonic: pending -> completed or pending -> failed, and
// never reverse. Both completed and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PaymentIntent is a durable record of an initiated payment. Amounts are
// decimal EGLD strings with exact precision; intents are never deleted, the
// ledger doubles as an audit trail.
type PaymentIntent struct {
	ID               string    `json:"id" bson:"_id"`
	Amount           string    `json:"amount" bson:"amount"`
	PayerAddress     string    `json:"payerAddress" bson:"payer_address"`
	RecipientAddress string    `json:"recipientAddress" bson:"recipient_address"`
	Status           Status    `json:"status" bson:"status"`
	TxHash           string    `json:"txHash,omitempty" bson:"tx_hash,omitempty"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}
