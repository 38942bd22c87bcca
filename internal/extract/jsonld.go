package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

// jsonLD reads schema.org Product blocks from <script type="application/ld+json">.
type jsonLD struct{}

func (jsonLD) Name() string { return "json-ld" }

func (jsonLD) Apply(p *Page, r *Result) {
	p.Doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		data, err := decodeJSON(s.Text())
		if err != nil {
			// Malformed blocks are common; try the next one.
			return true
		}
		product := findProduct(data)
		if product == nil {
			return true
		}

		if r.Name == "" {
			if name, ok := product["name"].(string); ok {
				r.Name = cleanName(name)
			}
		}
		if r.Price == nil {
			if pp, ok := offerPrice(product["offers"]); ok {
				r.Price = &pp
			}
		}
		if r.ImageURL == "" {
			r.ImageURL = imageURL(product["image"])
		}
		return false
	})
}

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// findProduct walks objects, arrays and @graph containers depth-first and
// returns the first node typed as a Product.
func findProduct(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if p := findProduct(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if isProduct(t["@type"]) {
			return t
		}
		if g, ok := t["@graph"]; ok {
			if p := findProduct(g); p != nil {
				return p
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			if k != "@graph" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if p := findProduct(t[k]); p != nil {
				return p
			}
		}
	}
	return nil
}

func isProduct(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Product" || t == "schema:Product" || strings.HasSuffix(t, "schema.org/Product")
	case []any:
		for _, x := range t {
			if isProduct(x) {
				return true
			}
		}
	}
	return false
}

func offerPrice(v any) (price.Parsed, bool) {
	switch t := v.(type) {
	case []any:
		for _, o := range t {
			if pp, ok := offerPrice(o); ok {
				return pp, true
			}
		}
	case map[string]any:
		code, _ := t["priceCurrency"].(string)
		for _, key := range []string{"price", "lowPrice"} {
			if amount, ok := scalarString(t[key]); ok {
				if pp, ok := price.ParseStructured(amount, code); ok {
					return pp, true
				}
			}
		}
		if ps, ok := t["priceSpecification"]; ok {
			return offerPrice(ps)
		}
	}
	return price.Parsed{}, false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, strings.TrimSpace(t) != ""
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// imageURL accepts a string, a list (first usable entry) or an ImageObject.
// The value is returned as written.
func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, x := range t {
			if s := imageURL(x); s != "" {
				return s
			}
		}
	case map[string]any:
		if s, ok := t["url"].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := t["contentUrl"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
