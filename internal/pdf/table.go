package pdf

import (
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

// column is one item table column. Numeric columns are drawn left to right
// as is; the rest go through bidi reordering.
type column struct {
	label   string
	width   float64
	align   string
	numeric bool
	value   func(it quote.Item, currency string) string
}

// itemColumns lists the table columns in visual order starting from the
// right edge of the page.
func itemColumns() []column {
	return []column{
		{
			label: "סה\"כ", width: 90, align: "C", numeric: true,
			value: func(it quote.Item, cur string) string { return formatMoney(cur, it.LineTotal) },
		},
		{
			label: "מחיר ליחידה", width: 90, align: "C", numeric: true,
			value: func(it quote.Item, cur string) string { return formatMoney(cur, it.UnitPrice) },
		},
		{
			label: "כמות", width: 65, align: "C", numeric: true,
			value: func(it quote.Item, _ string) string { return formatQuantity(it.Quantity) },
		},
		{
			label: "יחידה", width: 65, align: "C",
			value: func(it quote.Item, _ string) string { return it.Unit },
		},
		{
			label: "תיאור", width: 185, align: "R",
			value: func(it quote.Item, _ string) string { return it.Description },
		},
	}
}

type placedColumn struct {
	column
	x float64
}

// placeColumns assigns each column its left x, accumulating leftward from
// the right edge.
func placeColumns(cols []column, right float64) []placedColumn {
	placed := make([]placedColumn, len(cols))

	x := right
	for i, c := range cols {
		x -= c.width
		placed[i] = placedColumn{column: c, x: x}
	}

	return placed
}

func tableWidth(cols []column) float64 {
	var w float64
	for _, c := range cols {
		w += c.width
	}

	return w
}
