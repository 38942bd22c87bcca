package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxNameRunes discards "names" that are really whole page sections.
const maxNameRunes = 500

// Page is a parsed document handed to each strategy.
type Page struct {
	URL  string
	Base *url.URL // nil when URL is not absolute
	Doc  *goquery.Document
}

// Strategy fills whatever fields of r are still empty. Strategies run in a
// fixed order and never overwrite a field set by an earlier one.
type Strategy interface {
	Name() string
	Apply(p *Page, r *Result)
}

// DefaultChain is structured data first, then CSS selectors, then
// social-preview meta tags.
func DefaultChain(set SelectorSet) []Strategy {
	return []Strategy{
		jsonLD{},
		selectors{set: set},
		metaTags{},
	}
}

// resolve makes ref absolute against the page URL, returning ref unchanged
// when either side cannot be parsed.
func (p *Page) resolve(ref string) string {
	if p.Base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.Base.ResolveReference(u).String()
}

func cleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || utf8.RuneCountInString(s) >= maxNameRunes {
		return ""
	}
	return s
}
