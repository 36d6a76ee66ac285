// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry (for diagnostics).
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// User represents an account. The password digest and salt never leave the
// server; JSON marshalling skips them.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PwdHash   []byte    `json:"-"`
	SaltAuth  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ReceiptItem is a single line item on a receipt.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Receipt is a stored digital receipt. UserID is set from the authenticated
// caller at creation and is immutable. Date and Time are free-form strings as
// supplied by the caller; subtotal/tax/total are stored verbatim and never
// recomputed from the items.
type Receipt struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Retailer  string        `json:"retailer"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	Items     []ReceiptItem `json:"items"`
	Subtotal  float64       `json:"subtotal"`
	Tax       float64       `json:"tax"`
	Total     float64       `json:"total"`
	Category  string        `json:"category"`
	Logo      string        `json:"logo,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ReceiptDraft carries the caller-supplied fields of a new receipt, before
// the service assigns id, owner and creation time.
type ReceiptDraft struct {
	Retailer string        `json:"retailer"`
	Date     string        `json:"date"`
	Time     string        `json:"time"`
	Items    []ReceiptItem `json:"items"`
	Subtotal float64       `json:"subtotal"`
	Tax      float64       `json:"tax"`
	Total    float64       `json:"total"`
	Category string        `json:"category"`
	Logo     string        `json:"logo,omitempty"`
}
