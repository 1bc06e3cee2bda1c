package client

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"mediamarkt/crawler/internal/config"
	"mediamarkt/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Return marker modes. A word marker must stand alone in the tile name, a
// substring marker matches anywhere ("Feedback" contains "back").
const (
	MarkerModeWord      = "word"
	MarkerModeSubstring = "substring"
)

// CatalogParser reads brand indexes, category tiles and product cards out of
// shop documents. It never touches the network.
type CatalogParser struct {
	baseURL   string
	selectors config.SelectorsConfig
	markers   []*regexp.Regexp
}

func NewCatalogParser(baseURL string, selectors config.SelectorsConfig, returnMarkers []string, markerMode string) *CatalogParser {
	p := &CatalogParser{
		baseURL:   baseURL,
		selectors: selectors,
	}

	for _, marker := range returnMarkers {
		if re := compileMarker(marker, markerMode == MarkerModeSubstring); re != nil {
			p.markers = append(p.markers, re)
		}
	}

	return p
}

// compileMarker turns a marker into a case-insensitive pattern, bounded to a
// whole word unless substring is set. Non-ASCII letters match any short run
// of non-space characters, so "zurück" also matches "zurueck" and mis-decoded
// forms like "zur√ºck".
func compileMarker(marker string, substring bool) *regexp.Regexp {
	marker = foldName(strings.TrimSpace(marker))
	if marker == "" {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`(?i)`)
	if !substring {
		sb.WriteString(`(?:^|[^\p{L}\p{N}])`)
	}
	for _, r := range marker {
		if r < utf8.RuneSelf {
			sb.WriteString(regexp.QuoteMeta(string(r)))
		} else {
			sb.WriteString(`\S{1,4}`)
		}
	}
	if !substring {
		sb.WriteString(`(?:[^\p{L}\p{N}]|$)`)
	}

	return regexp.MustCompile(sb.String())
}

// IsReturnLink reports whether a tile is a "navigate up" control rather than a
// real subcategory.
func (p *CatalogParser) IsReturnLink(name, link, currentURL string) bool {
	if name == "" || link == "" {
		return true
	}

	folded := foldName(name)
	for _, re := range p.markers {
		if re.MatchString(folded) {
			return true
		}
	}

	return domain.SameIdentity(link, domain.NormalizeLink(p.baseURL, currentURL))
}

// foldName case-folds NFC-normalized text. Casers keep state, so one is made per call.
func foldName(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// ExtractLetterAnchors returns the glossary letters of the brand index in page order.
func (p *CatalogParser) ExtractLetterAnchors(doc *goquery.Document) []string {
	var letters []string
	doc.Find(p.selectors.LetterAnchors).Each(func(i int, a *goquery.Selection) {
		if letter, ok := a.Attr("aria-label"); ok && strings.TrimSpace(letter) != "" {
			letters = append(letters, strings.TrimSpace(letter))
		}
	})
	return letters
}

// ExtractBrands lists the brands under one glossary letter.
func (p *CatalogParser) ExtractBrands(doc *goquery.Document, letter string) []domain.BrandEntry {
	var brands []domain.BrandEntry

	selector := fmt.Sprintf(p.selectors.BrandRow, letter)
	doc.Find(selector).Each(func(i int, li *goquery.Selection) {
		a := li.Find("a[href]").First()
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		brands = append(brands, domain.BrandEntry{
			Name:     strings.TrimSpace(a.Text()),
			RootLink: domain.NormalizeLink(p.baseURL, href),
		})
	})

	log.Debugf("Found %d brands for letter %s", len(brands), letter)
	return brands
}

// ExtractChildCategories returns the subcategory tiles of a page, minus
// return links and links back to currentURL.
func (p *CatalogParser) ExtractChildCategories(doc *goquery.Document, currentURL string) []*domain.CategoryNode {
	var categories []*domain.CategoryNode

	doc.Find(p.selectors.CategoryTile).Each(func(i int, tile *goquery.Selection) {
		name := strings.TrimSpace(tile.Find(p.selectors.CategoryName).First().Text())

		base := currentURL
		if base == "" {
			base = p.baseURL
		}

		var link string
		if href, ok := tile.Find("a[href]").First().Attr("href"); ok {
			link = domain.NormalizeLink(base, href)
		}

		image, _ := tile.Find("img[src]").First().Attr("src")

		if p.IsReturnLink(name, link, currentURL) {
			log.Debugf("Skipping return tile %q (%s) on %s", name, link, currentURL)
			return
		}

		categories = append(categories, &domain.CategoryNode{
			Name:     name,
			Identity: link,
			ImageRef: image,
		})
	})

	return categories
}

// ExtractProducts reads every product card on the page. A missing field only
// leaves that field empty.
func (p *CatalogParser) ExtractProducts(doc *goquery.Document) []domain.ProductRecord {
	pageURL := p.baseURL
	if doc.Url != nil {
		pageURL = doc.Url.String()
	}

	var products []domain.ProductRecord
	doc.Find(p.selectors.ProductCard).Each(func(i int, card *goquery.Selection) {
		products = append(products, p.extractProduct(card, pageURL))
	})

	log.Debugf("Extracted %d products from %s", len(products), pageURL)
	return products
}

func (p *CatalogParser) extractProduct(card *goquery.Selection, pageURL string) domain.ProductRecord {
	product := domain.ProductRecord{
		Title:         strings.TrimSpace(card.Find(p.selectors.ProductTitle).First().Text()),
		RatingSummary: strings.TrimSpace(card.Find(p.selectors.RatingContainer).First().Text()),
		Attributes:    domain.NewAttributes(),
	}

	if href, ok := card.Find(p.selectors.ProductLink).First().Attr("href"); ok && href != "" {
		product.Link = resolveLink(pageURL, href)
	}

	if label, ok := card.Find(p.selectors.RatingLabel).First().Attr("aria-label"); ok {
		product.RatingLabel = label
	}

	for _, selector := range p.selectors.Price {
		if price := strings.TrimSpace(card.Find(selector).First().Text()); price != "" {
			product.Price = price
			break
		}
	}

	if src, ok := card.Find(p.selectors.ProductImage).First().Attr("src"); ok {
		product.ImageRef = src
	}

	dl := card.Find("dl").First()
	terms := dl.Find("dt")
	definitions := dl.Find("dd")
	for i := 0; i < min(terms.Length(), definitions.Length()); i++ {
		key := strings.TrimSpace(terms.Eq(i).Find("p").First().Text())
		value := strings.TrimSpace(definitions.Eq(i).Find("p").First().Text())
		product.Attributes.Set(key, value)
	}

	return product
}

func resolveLink(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return baseURL.ResolveReference(ref).String()
}
