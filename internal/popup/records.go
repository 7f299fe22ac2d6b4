package popup

import (
	"LinkCart/internal/links"
	"LinkCart/internal/scrape"
)

// RecordsFromPage maps a scraped page to the records to save: one per SKU
// with a quantity, or a single page-level record when there are no SKU
// rows.
func RecordsFromPage(p scrape.Page) []links.Record {
	if len(p.Products) == 0 {
		return []links.Record{{
			Link:  p.URL,
			Title: p.Title,
			Price: p.Price,
			Img:   p.ImgSrc,
		}}
	}

	out := make([]links.Record, 0, len(p.Products))
	for _, prod := range p.Products {
		out = append(out, links.Record{
			Link:        p.URL,
			Title:       p.Title,
			ProductName: prod.Name,
			Price:       prod.Price,
			Img:         p.ImgSrc,
			Count:       prod.Count,
		})
	}
	return out
}
