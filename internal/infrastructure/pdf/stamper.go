package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Generator is written into the document properties of every export
const Generator = "recipegen"

// Stamper validates rendered documents and records the export selection in
// their properties
type Stamper struct {
	conf *model.Configuration
}

// NewStamper creates a stamper with pdfcpu's default configuration
func NewStamper() *Stamper {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Stamper{conf: conf}
}

// Stamp returns a copy of pdf carrying meta as document properties
func (s *Stamper) Stamp(pdf []byte, meta outbound.PDFMetadata) ([]byte, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), s.conf)
	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("validate pdf: document has no pages")
	}

	props := map[string]string{
		"Generator":   Generator,
		"Selection":   meta.Selection,
		"RecipeCount": strconv.Itoa(meta.RecipeCount),
	}
	if meta.Title != "" {
		props["ExportTitle"] = meta.Title
	}

	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(pdf), &out, props, s.conf); err != nil {
		return nil, fmt.Errorf("add properties: %w", err)
	}
	return out.Bytes(), nil
}

// Properties reads back the document properties of pdf
func (s *Stamper) Properties(pdf []byte) (map[string]string, error) {
	props, err := api.Properties(bytes.NewReader(pdf), s.conf)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	return props, nil
}

var _ outbound.PDFStamper = (*Stamper)(nil)
