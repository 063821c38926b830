package pricelist

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	enc "github.com/inonalfa/Q-Builder-kiro-sub001/internal/encoding"
)

// Parser reads price list CSV exports and produces catalog params.
// It detects the delimiter and which header layout is used by matching
// column names against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]catalog.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching price list format found: expected description and price columns")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// sniffDelimiter picks the most frequent of ';', '\t' and ',' on the first
// non-empty line. Ties go to ','.
func sniffDelimiter(data []byte) rune {
	var line string

	for l := range strings.SplitSeq(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts catalog lines. Blank rows and rows with neither a
// description nor a price are skipped; a description with a bad price fails
// the whole file.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]catalog.CreateParams, error) {
	descIdx := cols[strings.ToLower(p.DescCol)]
	priceIdx := cols[strings.ToLower(p.PriceCol)]

	unitIdx := -1

	for _, name := range unitCols {
		if idx, ok := cols[name]; ok {
			unitIdx = idx
			break
		}
	}

	var params []catalog.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1 // 1-based

		desc := cellValue(row, descIdx)
		priceStr := cellValue(row, priceIdx)

		if desc == "" && priceStr == "" {
			continue
		}

		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		if priceStr == "" {
			return nil, fmt.Errorf("row %d: missing price", rowNum)
		}

		price, err := parsePrice(priceStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q: %w", rowNum, priceStr, err)
		}

		params = append(params, catalog.CreateParams{
			Description: desc,
			Unit:        cellValue(row, unitIdx),
			UnitPrice:   price,
		})
	}

	return params, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
