package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"price-scan/internal/cards"
)

func pageWithPagination(numbers ...string) string {
	page := `<html><body><div class="container align-center pagination">`
	for _, n := range numbers {
		page += "<a>" + n + "</a>"
	}
	return page + `</div></body></html>`
}

func TestPageCount(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{"no pagination element", `<html><body></body></html>`, 1},
		{"two links only", pageWithPagination("1", "2"), 1},
		{"full pagination", pageWithPagination("1", "2", "3", "17", "Nästa", "Sista"), 17},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			s := NewScheduler(server.Client(), TrailingPageCount("div.container.align-center.pagination a"), 2, 2, nil)
			count, err := s.PageCount(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("PageCount returned error: %v", err)
			}
			if count != tc.expected {
				t.Errorf("Expected %d pages, got %d", tc.expected, count)
			}
		})
	}
}

func TestMaxNumberPageCount(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{"no pagination element", `<html><body></body></html>`, 1},
		{"numbered pages", `<html><body><ul class="pagination"><li>1</li><li>2</li><li>7</li><li>»</li></ul></body></html>`, 7},
		{"arrows only", `<html><body><ul class="pagination"><li>«</li><li>»</li></ul></body></html>`, 1},
	}

	count := MaxNumberPageCount("ul.pagination li")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("parse test document: %v", err)
			}
			got, err := count(doc)
			if err != nil {
				t.Fatalf("PageCounter returned error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %d pages, got %d", tc.expected, got)
			}
		})
	}
}

func TestPageCountBadNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageWithPagination("1", "2", "sjutton", "Nästa", "Sista")))
	}))
	defer server.Close()

	s := NewScheduler(server.Client(), TrailingPageCount("div.container.align-center.pagination a"), 2, 2, nil)
	if _, err := s.PageCount(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for a non-numeric page link")
	}
}

func TestCollectURLsSkipsFailedPartition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageWithPagination("1", "2", "3", "Nästa", "Sista")))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewScheduler(server.Client(), TrailingPageCount("div.container.align-center.pagination a"), 2, 2, nil)
	partitions := []Partition{
		{Key: "ok", ProbeURL: server.URL + "/ok", PageURL: func(p int) string { return fmt.Sprintf("%s/ok/%d", server.URL, p) }},
		{Key: "broken", ProbeURL: server.URL + "/broken", PageURL: func(p int) string { return fmt.Sprintf("%s/broken/%d", server.URL, p) }},
	}

	urls := s.CollectURLs(context.Background(), partitions)
	if len(urls) != 3 {
		t.Fatalf("Expected 3 URLs from the healthy partition, got %d: %v", len(urls), urls)
	}
	for i, u := range urls {
		expected := fmt.Sprintf("%s/ok/%d", server.URL, i+1)
		if u != expected {
			t.Errorf("URL %d = %q, want %q", i, u, expected)
		}
	}
}

func TestFetchCardsIsolatesPageFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="card">Giant Growth</span></body></html>`))
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	parse := func(doc *goquery.Document, pageURL string) ([]cards.VendorCard, error) {
		var out []cards.VendorCard
		doc.Find("span.card").Each(func(_ int, sel *goquery.Selection) {
			name, err := cards.NewCardName(sel.Text())
			if err != nil {
				return
			}
			out = append(out, cards.VendorCard{Name: name, Vendor: cards.VendorDragonslair})
		})
		return out, nil
	}

	s := NewScheduler(server.Client(), MaxNumberPageCount("ul.pagination li"), 2, 2, parse)
	list := s.FetchCards(context.Background(), []string{server.URL + "/good", server.URL + "/bad", server.URL + "/good"})
	if len(list) != 2 {
		t.Fatalf("Expected 2 cards from the good pages, got %d", len(list))
	}
	for _, c := range list {
		if c.Name.Raw != "Giant Growth" {
			t.Errorf("Unexpected card %q", c.Name.Raw)
		}
	}
}

func TestRunGroupsByIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="card">Reaper King</span><span class="card">Reaper King (Showcase)</span></body></html>`))
	}))
	defer server.Close()

	parse := func(doc *goquery.Document, pageURL string) ([]cards.VendorCard, error) {
		var out []cards.VendorCard
		doc.Find("span.card").Each(func(_ int, sel *goquery.Selection) {
			name, err := cards.NewCardName(sel.Text())
			if err != nil {
				return
			}
			out = append(out, cards.VendorCard{Name: name, Vendor: cards.VendorDragonslair})
		})
		return out, nil
	}

	s := NewScheduler(server.Client(), TrailingPageCount("div.pagination a"), 2, 2, parse)
	grouped := s.Run(context.Background(), []Partition{
		{Key: "only", ProbeURL: server.URL, PageURL: func(int) string { return server.URL }},
	})

	if len(grouped) != 1 {
		t.Fatalf("Expected 1 identity bucket, got %d", len(grouped))
	}
	if got := len(grouped["reaper king"]); got != 2 {
		t.Errorf("Expected 2 cards under 'reaper king', got %d", got)
	}
}
