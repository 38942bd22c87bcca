package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

// metaTags falls back to Open Graph and Twitter card tags.
type metaTags struct{}

func (metaTags) Name() string { return "meta" }

func (metaTags) Apply(p *Page, r *Result) {
	if r.Name == "" {
		r.Name = cleanName(metaContent(p.Doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`))
	}
	if r.ImageURL == "" {
		r.ImageURL = metaContent(p.Doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`)
	}
	if r.Price == nil {
		amount := metaContent(p.Doc, `meta[property="product:price:amount"]`, `meta[property="og:price:amount"]`)
		code := metaContent(p.Doc, `meta[property="product:price:currency"]`, `meta[property="og:price:currency"]`)
		if amount != "" {
			if pp, ok := price.ParseStructured(amount, code); ok {
				r.Price = &pp
			}
		}
	}
}

func metaContent(doc *goquery.Document, queries ...string) string {
	for _, q := range queries {
		if v, ok := doc.Find(q).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
