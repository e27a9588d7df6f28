package domain

import "github.com/shopspring/decimal"

// User is a venue participant. Bots are users that another user can own.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot,omitempty"`
}

// Payment moves an amount between two users. Not retained in the mirror.
type Payment struct {
	PayerID     string          `json:"payerId"`
	RecipientID string          `json:"recipientId"`
	Amount      decimal.Decimal `json:"amount"`
}

// Ownership records which user controls a bot.
type Ownership struct {
	OfBotID string `json:"ofBotId"`
	OwnerID string `json:"ownerId"`
}
