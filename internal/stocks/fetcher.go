package stocks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"price-scan/internal/cards"
	"price-scan/internal/httpx"
)

// ErrNotFound means the aggregator knows no usable price for the card, or
// none for the requested set.
var ErrNotFound = errors.New("stocks: card not found")

// SetPrice is one printing's live price as the aggregator reports it.
type SetPrice struct {
	Set   cards.SetName
	Price cards.Price
}

// PriceFetcher looks up live prices from the MTGStocks API. Results are
// cached per card for the lifetime of the fetcher, and concurrent lookups
// of the same card share one upstream request.
type PriceFetcher struct {
	client  *http.Client
	baseURL string

	mu    sync.Mutex
	cache map[string][]SetPrice
	group singleflight.Group
}

func NewPriceFetcher(baseURL string, client *http.Client) *PriceFetcher {
	return &PriceFetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   make(map[string][]SetPrice),
	}
}

// LivePrice returns the live price of name in set. A cached card whose
// price list lacks the requested set is retried upstream; newly listed
// printings show up there first.
func (f *PriceFetcher) LivePrice(ctx context.Context, name cards.CardName, set cards.SetName) (cards.Price, error) {
	log.Printf("stocks: fetching live price for %s", name.AlmostRaw)

	f.mu.Lock()
	list, ok := f.cache[name.Cleaned]
	f.mu.Unlock()
	if ok {
		if price, found := findSet(list, set); found {
			return price, nil
		}
	}

	v, err, _ := f.group.Do(name.Cleaned, func() (any, error) {
		slug, err := f.searchSlug(ctx, name)
		if err != nil {
			return nil, err
		}
		list, err := f.setPrices(ctx, slug)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[name.Cleaned] = list
		f.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return cards.Price{}, err
	}

	if price, found := findSet(v.([]SetPrice), set); found {
		return price, nil
	}
	return cards.Price{}, fmt.Errorf("%w: %s in set %s", ErrNotFound, name.AlmostRaw, set.Raw)
}

func findSet(list []SetPrice, set cards.SetName) (cards.Price, bool) {
	for _, sp := range list {
		if sp.Set.Equal(set) {
			return sp.Price, true
		}
	}
	return cards.Price{}, false
}

// searchSlug resolves a card name to the aggregator's print slug via the
// autocomplete endpoint. Token hits are ignored.
func (f *PriceFetcher) searchSlug(ctx context.Context, name cards.CardName) (string, error) {
	u := fmt.Sprintf("%s/search/autocomplete/%s", f.baseURL, url.PathEscape(name.AlmostRaw))

	var hits []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := httpx.GetJSON(ctx, f.client, u, browserHeaders(), &hits, httpx.DefaultRetryConfig()); err != nil {
		return "", fmt.Errorf("stocks: autocomplete %s: %w", name.AlmostRaw, err)
	}

	for _, hit := range hits {
		if strings.Contains(hit.Name, "Token") {
			continue
		}
		return hit.Slug, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name.AlmostRaw)
}

// setPrices fetches every printing's latest market price for a slug.
func (f *PriceFetcher) setPrices(ctx context.Context, slug string) ([]SetPrice, error) {
	u := fmt.Sprintf("%s/prints/%s", f.baseURL, url.PathEscape(slug))

	var resp struct {
		Sets []struct {
			SetName        string   `json:"set_name"`
			LatestPriceMKM *float64 `json:"latest_price_mkm"`
		} `json:"sets"`
	}
	if err := httpx.GetJSON(ctx, f.client, u, browserHeaders(), &resp, httpx.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("stocks: prints %s: %w", slug, err)
	}

	list := make([]SetPrice, 0, len(resp.Sets))
	for _, s := range resp.Sets {
		set, err := cards.NewSetName(s.SetName)
		if err != nil {
			log.Printf("stocks: bad set name %q for %s: %v", s.SetName, slug, err)
			continue
		}
		amount := 0.0
		if s.LatestPriceMKM != nil {
			amount = *s.LatestPriceMKM
		} else {
			log.Printf("stocks: no latest price for %s in set %s, using 0.0", slug, s.SetName)
		}
		list = append(list, SetPrice{Set: set, Price: cards.NewPrice(amount, cards.EUR)})
	}
	return list, nil
}

// The API refuses requests that don't look like a browser.
func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,sv-SE;q=0.8,sv;q=0.7")
	h.Set("Cache-Control", "max-age=0")
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/39.0.2171.95 Safari/537.36")
	return h
}
