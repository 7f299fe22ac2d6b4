// Package scrape extracts product data (price, image, per-SKU quantities)
// from a shop's product page.
package scrape

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNotFound = errors.New("scrape: product data not found on page")

const (
	selPrice       = ".price-text"
	selGalleryImg  = ".detail-gallery-turn-wrapper img"
	selSKU         = ".sku-item-wrapper"
	selSKUName     = ".sku-item-name"
	selSKUPrice    = ".discountPrice-price"
	selSKUQuantity = ".next-input-group-auto-width input"

	priceRangeSep = " - "
)

var priceDigits = regexp.MustCompile(`[0-9,.]+`)

// Product is one SKU row the shopper picked a quantity for.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Count int    `json:"count"`
}

// Page is what a product page yields. Products is empty for pages without
// SKU rows; Price then carries the page-level price or price range.
type Page struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Price    string    `json:"price,omitempty"`
	ImgSrc   string    `json:"imgSrc,omitempty"`
	Products []Product `json:"products,omitempty"`
}

// Parse reads an HTML document. pageURL is used to resolve a relative
// image src and is copied into the result.
func Parse(r io.Reader, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	p := Page{
		URL:      pageURL,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Price:    pagePrice(doc),
		ImgSrc:   resolve(pageURL, galleryImage(doc)),
		Products: products(doc),
	}

	if p.Price == "" && p.ImgSrc == "" && len(p.Products) == 0 {
		return p, ErrNotFound
	}
	return p, nil
}

// pagePrice joins the digits of every price element, so "US $1.20" and
// "US $3.40" become "1.20 - 3.40".
func pagePrice(doc *goquery.Document) string {
	var parts []string
	doc.Find(selPrice).Each(func(_ int, s *goquery.Selection) {
		if m := priceDigits.FindAllString(s.Text(), -1); len(m) > 0 {
			parts = append(parts, strings.Join(m, ""))
		}
	})
	return strings.Join(parts, priceRangeSep)
}

// galleryImage prefers the second gallery image; the first is usually a
// video poster.
func galleryImage(doc *goquery.Document) string {
	imgs := doc.Find(selGalleryImg)
	switch {
	case imgs.Length() > 1:
		return imgs.Eq(1).AttrOr("src", "")
	case imgs.Length() == 1:
		return imgs.First().AttrOr("src", "")
	default:
		return ""
	}
}

func products(doc *goquery.Document) []Product {
	var out []Product
	doc.Find(selSKU).Each(func(_ int, s *goquery.Selection) {
		qty, err := strconv.Atoi(strings.TrimSpace(s.Find(selSKUQuantity).AttrOr("value", "")))
		if err != nil || qty <= 0 {
			return
		}
		out = append(out, Product{
			Name:  strings.TrimSpace(s.Find(selSKUName).Text()),
			Price: strings.TrimSpace(s.Find(selSKUPrice).Text()),
			Count: qty,
		})
	})
	return out
}

func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
