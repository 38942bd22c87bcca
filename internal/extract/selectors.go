package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

type PriceSelector struct {
	Query    string
	Priority price.Priority
}

// SelectorSet is the ordered list of CSS selectors tried for each field.
type SelectorSet struct {
	Price []PriceSelector
	Name  []string
	Image []string
}

// DefaultSelectors returns the built-in selector lists. extra selectors are
// appended to the curated tier, before the generic catch-alls.
func DefaultSelectors(extra []string) SelectorSet {
	var set SelectorSet
	add := func(pr price.Priority, qs ...string) {
		for _, q := range qs {
			set.Price = append(set.Price, PriceSelector{Query: q, Priority: pr})
		}
	}

	add(price.PrioritySchema,
		`[itemprop="price"]`,
		`[data-price]`,
		`[data-product-price]`,
	)
	add(price.PriorityExplicit,
		`.price`,
		`.product-price`,
		`.current-price`,
		`.sale-price`,
		`.final-price`,
		`.offer-price`,
		`#price`,
		`#priceblock_ourprice`,
		`#priceblock_dealprice`,
		`#priceblock_saleprice`,
		// Amazon
		`.a-price .a-offscreen`,
		`.a-price-whole`,
		`#corePrice_feature_div .a-price .a-offscreen`,
		`#corePriceDisplay_desktop_feature_div .a-price .a-offscreen`,
	)
	add(price.PriorityExplicit, extra...)
	add(price.PriorityGeneric,
		`[class*="price"]`,
		`[class*="Price"]`,
		`[id*="price"]`,
		`[id*="Price"]`,
	)

	set.Name = []string{
		`[itemprop="name"]`,
		`h1[class*="product"]`,
		`h1[class*="title"]`,
		`#productTitle`,
		`.product-title`,
		`.product-name`,
		`h1`,
	}
	set.Image = []string{
		`[itemprop="image"]`,
		`[property="og:image"]`,
		`#landingImage`,
		`#imgBlkFront`,
		`.product-image img`,
		`.main-image img`,
		`[data-zoom-image]`,
		`img[class*="product"]`,
	}
	return set
}

type selectors struct {
	set SelectorSet
}

func (selectors) Name() string { return "selectors" }

func (s selectors) Apply(p *Page, r *Result) {
	if r.Price == nil {
		if pp, ok := s.price(p.Doc); ok {
			r.Price = &pp
		}
	}
	if r.Name == "" {
		r.Name = s.name(p.Doc)
	}
	if r.ImageURL == "" {
		r.ImageURL = s.image(p)
	}
}

// price stops at the first selector whose matches yield at least one price
// and lets the disambiguator choose among them.
func (s selectors) price(doc *goquery.Document) (price.Parsed, bool) {
	microdataCurrency := strings.TrimSpace(metaContent(doc, `[itemprop="priceCurrency"]`))
	for _, sel := range s.set.Price {
		var cands []price.Candidate
		doc.Find(sel.Query).Each(func(_ int, el *goquery.Selection) {
			if pp, ok := elementPrice(el, microdataCurrency); ok {
				cands = append(cands, price.Candidate{Price: pp, Priority: sel.Priority})
			}
		})
		if len(cands) > 0 {
			return price.MostLikely(cands)
		}
	}
	return price.Parsed{}, false
}

// elementPrice reads microdata content="" as a machine value in the page's
// priceCurrency; everything else is parsed as display text.
func elementPrice(el *goquery.Selection, microdataCurrency string) (price.Parsed, bool) {
	if prop, _ := el.Attr("itemprop"); prop == "price" {
		if v, ok := el.Attr("content"); ok && strings.TrimSpace(v) != "" {
			return price.ParseStructured(v, microdataCurrency)
		}
	}
	return price.Parse(elementPriceText(el))
}

func elementPriceText(el *goquery.Selection) string {
	for _, attr := range []string{"content", "data-price"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return el.Text()
}

func (s selectors) name(doc *goquery.Document) string {
	for _, q := range s.set.Name {
		el := doc.Find(q).First()
		if el.Length() == 0 {
			continue
		}
		if name := cleanName(el.Text()); name != "" {
			return name
		}
	}
	return ""
}

func (s selectors) image(p *Page) string {
	for _, q := range s.set.Image {
		el := p.Doc.Find(q).First()
		if el.Length() == 0 {
			continue
		}
		for _, attr := range []string{"src", "content", "data-zoom-image", "data-src"} {
			if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return p.resolve(strings.TrimSpace(v))
			}
		}
	}
	return ""
}
