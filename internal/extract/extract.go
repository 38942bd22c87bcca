package extract

import (
	"bytes"
	"context"
	"log"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

// DefaultUserAgent identifies as an ordinary desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is a best-effort product snapshot. Empty fields mean the page did
// not yield that field; they never mean the fetch failed.
type Result struct {
	URL      string
	Name     string
	Price    *price.Parsed
	ImageURL string
}

func (r Result) HasPrice() bool { return r.Price != nil }

func (r Result) complete() bool {
	return r.Name != "" && r.Price != nil && r.ImageURL != ""
}

type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	// ExtraPriceSelectors widen the curated class-name tier for sites the
	// built-in list does not know.
	ExtraPriceSelectors []string
}

// Extractor fetches product pages and runs the strategy chain over them.
type Extractor struct {
	fetcher *Fetcher
	chain   []Strategy
}

func New(opts Options) *Extractor {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}

	var extra []string
	for _, sel := range opts.ExtraPriceSelectors {
		if _, err := cascadia.Compile(sel); err != nil {
			log.Printf("[extract] ignoring invalid price selector %q: %v", sel, err)
			continue
		}
		extra = append(extra, sel)
	}

	return &Extractor{
		fetcher: &Fetcher{userAgent: opts.UserAgent, timeout: opts.Timeout, maxRedirects: opts.MaxRedirects},
		chain:   DefaultChain(DefaultSelectors(extra)),
	}
}

// Extract downloads pageURL and extracts what it can. Only a failure to
// retrieve the page is returned as an error (wrapping ErrFetch).
func (e *Extractor) Extract(ctx context.Context, pageURL string) (Result, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return Result{URL: pageURL}, err
	}
	return e.Parse(pageURL, body), nil
}

// Parse runs the strategy chain over an already downloaded page.
func (e *Extractor) Parse(pageURL string, body []byte) Result {
	res := Result{URL: pageURL}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("[extract] parse %s: %v", pageURL, err)
		return res
	}

	page := &Page{URL: pageURL, Doc: doc}
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		page.Base = u
	}

	for _, s := range e.chain {
		if res.complete() {
			break
		}
		s.Apply(page, &res)
	}
	return res
}
