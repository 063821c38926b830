package pricelist

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errNegativePrice = errors.New("negative price")

// parsePrice reads a price cell such as "₪1,234.50", "1234.5 ש\"ח" or the
// European "1.234,50". A lone comma followed by one or two digits is a
// decimal separator; otherwise commas group thousands.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := s
	for _, token := range []string{"₪", "ש\"ח", "ש״ח", "NIS", "nis", " ", " "} {
		clean = strings.ReplaceAll(clean, token, "")
	}

	clean = normalizeSeparators(clean)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	if d.IsNegative() {
		return decimal.Zero, errNegativePrice
	}

	return d.Round(2), nil
}

func normalizeSeparators(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		// 1.234,50
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot < 0 && strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2:
		// 12,5
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}
