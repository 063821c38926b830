package importer

import (
	"fmt"
	"io"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/importer/pricelist"
)

type Service struct {
	priceListImporter Importer
}

func NewService() *Service {
	return &Service{
		priceListImporter: pricelist.NewParser(),
	}
}

// Import parses r with the importer for format. An empty format means a
// price list.
func (s *Service) Import(format Format, r io.Reader) ([]catalog.CreateParams, error) {
	var importer Importer

	switch format {
	case FormatPriceList, "":
		importer = s.priceListImporter
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return importer.Parse(r)
}
