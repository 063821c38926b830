package pricelist

// Profile describes the header layout of a price list export. Column names
// are compared case-insensitively after trimming.
type Profile struct {
	Name     string
	DescCol  string
	PriceCol string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.DescCol, p.PriceCol}
}

// profiles is tried in order during detection; more specific layouts first.
var profiles = []Profile{
	{Name: "hebrew-unit-price", DescCol: "תיאור", PriceCol: "מחיר ליחידה"},
	{Name: "hebrew", DescCol: "תיאור", PriceCol: "מחיר"},
	{Name: "hebrew-item", DescCol: "פריט", PriceCol: "מחיר"},
	{Name: "english-unit-price", DescCol: "description", PriceCol: "unit price"},
	{Name: "english", DescCol: "description", PriceCol: "price"},
}

// unitCols are the accepted names of the optional unit column, in order of
// preference. Rows get an empty unit when none is present.
var unitCols = []string{"יחידה", "יחידת מידה", "unit", "uom"}
