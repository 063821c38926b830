package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog item not found")
	ErrInvalidProfession = errors.New("profession is required")
)

// Item is a priced line a contractor picks from when building a quote.
// Items are grouped by profession (plumbing, tiling, electrical...).
type Item struct {
	ID          int64
	TenantID    int64
	Profession  string
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
}

// key identifies an item within a tenant's profession list.
type key struct {
	Description string
	Unit        string
}

func (i *Item) key() key {
	return key{Description: i.Description, Unit: i.Unit}
}
