package quote

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("quote not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidStatus = errors.New("invalid status transition")
)

// Status represents the lifecycle state of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Quote is the stored price quote owned by a tenant.
type Quote struct {
	ID         int64
	TenantID   int64
	ClientID   int64
	Number     string
	Status     Status
	IssueDate  time.Time
	ExpiryDate time.Time
	VATRate    decimal.Decimal
	Terms      *string
	Items      []Item // Loaded via JOIN on Get
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item is a single priced line. Order in a slice is rendering order.
type Item struct {
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Metadata is the cheap lookup used to key the PDF cache.
type Metadata struct {
	Exists        bool
	LastModified  time.Time
	DisplayNumber string
}

// Business is the issuing tenant's letterhead.
type Business struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	LogoPath string
}

type Client struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
}

// Document is the immutable snapshot a quote is rendered from. Totals are
// trusted as given: Subtotal = Σ LineTotal, VATAmount = Subtotal × VATRate,
// Total = Subtotal + VATAmount.
type Document struct {
	QuoteNumber string
	IssueDate   time.Time
	ExpiryDate  time.Time
	Business    Business
	Client      Client
	Items       []Item
	Subtotal    decimal.Decimal
	VATRate     decimal.Decimal
	VATAmount   decimal.Decimal
	Total       decimal.Decimal
	Terms       *string
}
