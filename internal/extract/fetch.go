package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

var (
	// ErrFetch marks a page that could not be retrieved at all.
	ErrFetch            = errors.New("fetch failed")
	ErrTooManyRedirects = errors.New("too many redirects")
)

type Fetcher struct {
	userAgent    string
	timeout      time.Duration
	maxRedirects int
}

// Fetch returns the body of pageURL. Timeouts, transport errors, non-2xx
// responses and redirect chains longer than the bound all fail the fetch.
// An in-flight request is not cancelled; ctx is only checked before starting.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) > f.maxRedirects {
			return fmt.Errorf("%w: more than %d, stopped at %s", ErrTooManyRedirects, f.maxRedirects, req.URL)
		}
		return nil
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}
	return body, nil
}
