// Package parser extracts product candidates from raw catalog pages.
package parser

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/metrics"
)

// Selectors names the CSS selectors used to locate product fields within a
// page. They are configured per target site.
type Selectors struct {
	Item      string
	Title     string
	Price     string
	Image     string
	ImageAttr string
}

// DefaultSelectors returns the selector set for the default catalog layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:      ".product-item",
		Title:     ".product-title",
		Price:     ".product-price",
		Image:     "img",
		ImageAttr: "src",
	}
}

// Parser implements catalog.Parser using goquery.
type Parser struct {
	sel    Selectors
	logger *zap.Logger
}

// New builds a Parser. Zero-valued selector fields fall back to the defaults.
func New(sel Selectors, logger *zap.Logger) *Parser {
	def := DefaultSelectors()
	if sel.Item == "" {
		sel.Item = def.Item
	}
	if sel.Title == "" {
		sel.Title = def.Title
	}
	if sel.Price == "" {
		sel.Price = def.Price
	}
	if sel.Image == "" {
		sel.Image = def.Image
	}
	if sel.ImageAttr == "" {
		sel.ImageAttr = def.ImageAttr
	}
	return &Parser{sel: sel, logger: logger}
}

// Parse extracts candidates in document order. Items missing a title, a
// parseable non-negative price, or an image reference are skipped; Parse
// itself never fails. An empty result signals catalog exhaustion.
func (p *Parser) Parse(page []byte) []catalog.Candidate {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		p.logger.Warn("unparseable page content", zap.Error(err))
		return nil
	}

	var out []catalog.Candidate
	doc.Find(p.sel.Item).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(p.sel.Title).First().Text())
		if title == "" {
			return
		}

		price, ok := parsePrice(s.Find(p.sel.Price).First().Text())
		if !ok {
			p.logger.Debug("skipping item with unparseable price", zap.String("title", title))
			return
		}

		imageURL, exists := s.Find(p.sel.Image).First().Attr(p.sel.ImageAttr)
		imageURL = strings.TrimSpace(imageURL)
		if !exists || imageURL == "" {
			return
		}

		out = append(out, catalog.Candidate{
			Title:    title,
			Price:    price,
			ImageURL: imageURL,
		})
	})

	metrics.ObserveCandidates(len(out))
	return out
}

// parsePrice strips a single leading currency symbol and parses the rest as a
// non-negative decimal.
func parsePrice(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	runes := []rune(text)
	first := runes[0]
	if !unicode.IsDigit(first) && first != '.' && first != '-' {
		text = strings.TrimSpace(string(runes[1:]))
	}
	price, err := strconv.ParseFloat(text, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}
