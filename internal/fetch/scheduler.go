package fetch

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-scan/internal/cards"
	"price-scan/internal/concurrency"
	"price-scan/internal/httpx"
)

// Partition is one scheduler bucket of a vendor catalogue (a cost bracket,
// a category section). ProbeURL is the page used only to discover the page
// count; PageURL builds the listing page URLs, numbered from 1.
type Partition struct {
	Key      string
	ProbeURL string
	PageURL  func(page int) string
}

// PageParser turns one fetched listing page into vendor records. Vendor
// adapters supply it; the scheduler stays markup-agnostic apart from the
// pagination element.
type PageParser func(doc *goquery.Document, pageURL string) ([]cards.VendorCard, error)

// PageCounter reads the page count out of a probe page. Each storefront
// renders its pagination differently, so adapters pick the rule.
type PageCounter func(doc *goquery.Document) (int, error)

// TrailingPageCount handles paginators whose last links are the page
// number followed by next/last arrows: the third link from the end holds
// the count. Fewer than 3 links means a single page.
func TrailingPageCount(sel string) PageCounter {
	return func(doc *goquery.Document) (int, error) {
		links := doc.Find(sel)
		if links.Length() < 3 {
			return 1, nil
		}
		text := strings.TrimSpace(links.Eq(links.Length() - 3).Text())
		count, err := strconv.Atoi(text)
		if err != nil {
			return 0, fmt.Errorf("fetch: pagination link %q is not a page number: %w", text, err)
		}
		return count, nil
	}
}

// MaxNumberPageCount handles paginators that list every page: the largest
// numeric entry wins, non-numeric entries (arrows, ellipses) are ignored.
func MaxNumberPageCount(sel string) PageCounter {
	return func(doc *goquery.Document) (int, error) {
		max := 1
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			if n, err := strconv.Atoi(strings.TrimSpace(el.Text())); err == nil && n > max {
				max = n
			}
		})
		return max, nil
	}
}

// Scheduler discovers how many pages each partition has and fetches them
// all under two independent caps, one for discovery and one for page
// content. A failed page contributes zero records, never aborts the run.
type Scheduler struct {
	client          *http.Client
	countPages      PageCounter
	discoverWorkers int
	fetchWorkers    int
	parse           PageParser
}

func NewScheduler(client *http.Client, countPages PageCounter, discoverWorkers, fetchWorkers int, parse PageParser) *Scheduler {
	return &Scheduler{
		client:          client,
		countPages:      countPages,
		discoverWorkers: discoverWorkers,
		fetchWorkers:    fetchWorkers,
		parse:           parse,
	}
}

// PageCount probes url and applies the adapter's pagination rule.
func (s *Scheduler) PageCount(ctx context.Context, url string) (int, error) {
	doc, err := httpx.GetDocument(ctx, s.client, url, httpx.DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	return s.countPages(doc)
}

// CollectURLs probes every partition concurrently and expands it into its
// page URLs. A partition whose probe fails is logged and skipped.
func (s *Scheduler) CollectURLs(ctx context.Context, partitions []Partition) []string {
	opts := concurrency.ParallelOptions{MaxWorkers: s.discoverWorkers}

	urls, errs := concurrency.FlatMap(ctx, partitions, opts, func(ctx context.Context, p Partition) ([]string, error) {
		count, err := s.PageCount(ctx, p.ProbeURL)
		if err != nil {
			return nil, fmt.Errorf("fetch: page count for partition %s (%s): %w", p.Key, p.ProbeURL, err)
		}
		pages := make([]string, 0, count)
		for page := 1; page <= count; page++ {
			pages = append(pages, p.PageURL(page))
		}
		return pages, nil
	})

	for _, err := range errs {
		log.Printf("fetch: %v", err)
	}
	return urls
}

// FetchCards downloads and parses every page URL under the fetch cap.
func (s *Scheduler) FetchCards(ctx context.Context, urls []string) []cards.VendorCard {
	opts := concurrency.ParallelOptions{MaxWorkers: s.fetchWorkers}

	list, errs := concurrency.FlatMap(ctx, urls, opts, func(ctx context.Context, url string) ([]cards.VendorCard, error) {
		doc, err := httpx.GetDocument(ctx, s.client, url, httpx.DefaultRetryConfig())
		if err != nil {
			return nil, fmt.Errorf("fetch: page %s: %w", url, err)
		}
		parsed, err := s.parse(doc, url)
		if err != nil {
			return nil, fmt.Errorf("fetch: parse %s: %w", url, err)
		}
		return parsed, nil
	})

	for _, err := range errs {
		log.Printf("fetch: %v", err)
	}
	return list
}

// Run executes discovery and fetching for all partitions and groups the
// result by card identity.
func (s *Scheduler) Run(ctx context.Context, partitions []Partition) map[string][]cards.VendorCard {
	urls := s.CollectURLs(ctx, partitions)
	log.Printf("fetch: %d pages across %d partitions", len(urls), len(partitions))
	return cards.GroupVendorCards(s.FetchCards(ctx, urls))
}
