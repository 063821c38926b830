package quote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

type quoteResponse struct {
	ID         int64           `json:"id"`
	ClientID   int64           `json:"client_id"`
	Number     string          `json:"number"`
	Status     quote.Status    `json:"status"`
	IssueDate  time.Time       `json:"issue_date"`
	ExpiryDate time.Time       `json:"expiry_date"`
	VATRate    decimal.Decimal `json:"vat_rate"`
	Terms      *string         `json:"terms,omitempty"`
	Items      []itemResponse  `json:"items,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at,omitzero"`
}

type itemResponse struct {
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// errorResponse is the body of failed PDF requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toResponse(q *quote.Quote) quoteResponse {
	resp := quoteResponse{
		ID:         q.ID,
		ClientID:   q.ClientID,
		Number:     q.Number,
		Status:     q.Status,
		IssueDate:  q.IssueDate,
		ExpiryDate: q.ExpiryDate,
		VATRate:    q.VATRate,
		Terms:      q.Terms,
		Subtotal:   q.Subtotal,
		VATAmount:  q.VATAmount,
		Total:      q.Total,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}

	for _, it := range q.Items {
		resp.Items = append(resp.Items, itemResponse(it))
	}

	return resp
}

func toResponseList(qs []*quote.Quote) []quoteResponse {
	resp := make([]quoteResponse, len(qs))
	for i, q := range qs {
		resp[i] = toResponse(q)
	}

	return resp
}
