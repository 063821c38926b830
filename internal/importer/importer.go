package importer

import (
	"io"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
)

type Format string

const (
	FormatPriceList Format = "pricelist"
)

type Importer interface {
	Parse(r io.Reader) ([]catalog.CreateParams, error)
}
