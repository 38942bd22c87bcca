package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestExtractor() *Extractor {
	return New(Options{Timeout: 5 * time.Second, MaxRedirects: 5})
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func checkPrice(t *testing.T, r Result, amount, code string) {
	t.Helper()
	if r.Price == nil {
		t.Fatalf("no price extracted, want %s %s", code, amount)
	}
	if !r.Price.Amount.Equal(decimal.RequireFromString(amount)) || r.Price.Currency != code {
		t.Fatalf("price = %s, want %s %s", r.Price, code, amount)
	}
}

func TestExtractJSONLD(t *testing.T) {
	srv := serve(t, `<html><head>
<script type="application/ld+json">{"@type":"Product","name":"Widget","offers":{"price":"19.99","priceCurrency":"EUR"},"image":"https://x/img.png"}</script>
</head><body><span class="price">$5.00</span></body></html>`)

	r, err := newTestExtractor().Extract(context.Background(), srv.URL+"/p/1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Name != "Widget" {
		t.Errorf("name = %q, want Widget", r.Name)
	}
	checkPrice(t, r, "19.99", "EUR")
	if r.ImageURL != "https://x/img.png" {
		t.Errorf("image = %q", r.ImageURL)
	}
	if r.URL != srv.URL+"/p/1" {
		t.Errorf("url = %q", r.URL)
	}
}

func TestParseGraphAndArrays(t *testing.T) {
	html := `<script type="application/ld+json">{ broken json </script>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"Shop"},
  {"@type":["Thing","Product"],"name":"Gadget","offers":[{"@type":"AggregateOffer","lowPrice":12.5,"priceCurrency":"gbp"}],
   "image":[{"@type":"ImageObject","url":"/g.jpg"}]}
]}</script>`
	r := newTestExtractor().Parse("https://shop.example/item", []byte(html))
	if r.Name != "Gadget" {
		t.Errorf("name = %q, want Gadget", r.Name)
	}
	checkPrice(t, r, "12.5", "GBP")
	// JSON-LD images are kept as written.
	if r.ImageURL != "/g.jpg" {
		t.Errorf("image = %q, want /g.jpg", r.ImageURL)
	}
}

func TestParseSelectors(t *testing.T) {
	html := `<html><body>
<h1 class="product-title">
   Blue   Kettle
</h1>
<div class="product-image"><img src="/img/kettle.jpg"></div>
<div class="price">$29.99</div>
<div class="price">$29.99</div>
<div class="price">Was $35.00</div>
<div class="price-note">Save 10%</div>
</body></html>`
	r := newTestExtractor().Parse("https://shop.example/items/kettle", []byte(html))
	if r.Name != "Blue Kettle" {
		t.Errorf("name = %q, want %q", r.Name, "Blue Kettle")
	}
	checkPrice(t, r, "29.99", "USD")
	if r.ImageURL != "https://shop.example/img/kettle.jpg" {
		t.Errorf("image = %q", r.ImageURL)
	}
}

func TestParseMicrodata(t *testing.T) {
	html := `<div itemscope itemtype="https://schema.org/Product">
<span itemprop="name">Lamp</span>
<meta itemprop="priceCurrency" content="EUR">
<span itemprop="price" content="1234.50">1.234,50 €</span>
<span class="price">999</span>
</div>`
	r := newTestExtractor().Parse("https://shop.example/lamp", []byte(html))
	if r.Name != "Lamp" {
		t.Errorf("name = %q, want Lamp", r.Name)
	}
	checkPrice(t, r, "1234.50", "EUR")
}

func TestParseExtraSelectors(t *testing.T) {
	html := `<span class="cost">£12.00</span><span id="unitPrice">£99.00</span>`
	plain := newTestExtractor().Parse("https://shop.example/", []byte(html))
	checkPrice(t, plain, "99", "GBP")

	e := New(Options{ExtraPriceSelectors: []string{".cost", "[[[invalid"}})
	r := e.Parse("https://shop.example/", []byte(html))
	checkPrice(t, r, "12", "GBP")
}

func TestParseMetaFallback(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Fancy Chair">
<meta property="og:image" content="https://cdn.example/chair.png">
<meta property="product:price:amount" content="149.00">
<meta property="product:price:currency" content="USD">
</head><body><p>No markup here.</p></body></html>`
	r := newTestExtractor().Parse("https://shop.example/chair", []byte(html))
	if r.Name != "Fancy Chair" {
		t.Errorf("name = %q", r.Name)
	}
	// The og:image selector already matches during the selector pass.
	if r.ImageURL != "https://cdn.example/chair.png" {
		t.Errorf("image = %q", r.ImageURL)
	}
	checkPrice(t, r, "149", "USD")
}

func TestParseEmptyPage(t *testing.T) {
	r := newTestExtractor().Parse("https://shop.example/", []byte(`<html><body><p>Hello</p></body></html>`))
	if r.Name != "" || r.Price != nil || r.ImageURL != "" {
		t.Fatalf("expected empty result, got %+v", r)
	}
}

func TestParseNameLengthGuard(t *testing.T) {
	long := strings.Repeat("word ", 200)
	html := `<h1 class="product-title">` + long + `</h1><div class="product-name">Short Name</div>`
	r := newTestExtractor().Parse("https://shop.example/", []byte(html))
	if r.Name != "Short Name" {
		t.Errorf("name = %q, want Short Name", r.Name)
	}
}

func TestExtractNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestExtractor().Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestExtractRedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestExtractor().Extract(context.Background(), srv.URL+"/loop")
	if !errors.Is(err, ErrFetch) || !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("err = %v, want ErrFetch wrapping ErrTooManyRedirects", err)
	}
}

func TestExtractFollowsShortRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>Moved Item</h1><span class="price">€5,00</span>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r, err := newTestExtractor().Extract(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Name != "Moved Item" {
		t.Errorf("name = %q", r.Name)
	}
	checkPrice(t, r, "5", "EUR")
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestExtractor().Extract(ctx, "http://127.0.0.1:1/")
	if !errors.Is(err, ErrFetch) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractSendsBrowserHeaders(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	if _, err := newTestExtractor().Extract(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if ua != DefaultUserAgent {
		t.Errorf("User-Agent = %q", ua)
	}
	if !strings.Contains(accept, "text/html") {
		t.Errorf("Accept = %q", accept)
	}
}

func TestExtractTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		_, _ = w.Write([]byte(`<span class="price">$1.00</span>`))
	}))
	defer srv.Close()

	ex := New(Options{Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := ex.Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("fetch took %s, want it capped near the timeout", elapsed)
	}
}

func TestParseRejectsExponentPrices(t *testing.T) {
	for _, offer := range []string{`"1e200000000"`, `1e400`, `"1E9999999"`} {
		html := `<script type="application/ld+json">{"@type":"Product","name":"Huge","offers":{"price":` + offer + `,"priceCurrency":"USD"}}</script>
<meta itemprop="priceCurrency" content="USD"><span itemprop="price" content="1e300"></span>
<meta property="product:price:amount" content="5e8000000">
<span class="price">$7.00</span>`
		r := newTestExtractor().Parse("https://shop.example/", []byte(html))
		if r.Name != "Huge" {
			t.Errorf("%s: name = %q", offer, r.Name)
		}
		checkPrice(t, r, "7", "USD")
	}
}
