package alphaspel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func product(name, stock, price string) string {
	var b strings.Builder
	b.WriteString(`<div class="product">`)
	b.WriteString(`<img class="img-responsive center-block" src="/media/products/thumbs/abc.250x250.png"/>`)
	b.WriteString(`<div class="product-name">` + name + `</div>`)
	b.WriteString(`<div class="stock">` + stock + `</div>`)
	b.WriteString(`<div class="price text-success">` + price + `</div>`)
	b.WriteString(`</div>`)
	return b.String()
}

func productsPage(products ...string) string {
	return `<html><body><div class="products row">` + strings.Join(products, "") + `</div></body></html>`
}

func parseTestPage(t *testing.T, s *Scraper, html string) []cardResult {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	parsed, err := s.parsePage(doc, "test-page")
	if err != nil {
		t.Fatalf("parsePage returned error: %v", err)
	}
	results := make([]cardResult, 0, len(parsed))
	for _, c := range parsed {
		results = append(results, cardResult{c.Name.AlmostRaw, c.Set.Raw, c.Price.Amount, c.CurrentStock, c.Foil, c.Prerelease, c.ExtendedArt})
	}
	return results
}

type cardResult struct {
	name        string
	set         string
	price       float64
	stock       int
	foil        bool
	prerelease  bool
	extendedArt bool
}

func newTestScraper(setNames ...string) *Scraper {
	s := New("https://alphaspel.se", http.DefaultClient, 2, 2)
	s.setNames = setNames
	return s
}

func TestParseProduct(t *testing.T) {
	s := newTestScraper("Bloomburrow", "10th Edition")

	results := parseTestPage(t, s, productsPage(
		product("10th Edition: Loxodon Mystic", "9 i butiken", "5.00 kr"),
		product("Bloomburrow: Whiskervale Forerunner (Foil) (Prerelease)", "2 i butiken", "35 kr"),
		product("Bloomburrow: Carrot Cake (alternative art)", "1 i butiken", "12 kr"),
	))

	if len(results) != 3 {
		t.Fatalf("Expected 3 cards, got %d", len(results))
	}

	first := results[0]
	if first.name != "Loxodon Mystic" {
		t.Errorf("Expected name 'Loxodon Mystic', got %q", first.name)
	}
	if first.set != "10th Edition" {
		t.Errorf("Expected set '10th Edition', got %q", first.set)
	}
	if first.price != 5 {
		t.Errorf("Expected price 5, got %v", first.price)
	}
	if first.stock != 9 {
		t.Errorf("Expected stock 9, got %d", first.stock)
	}
	if first.foil || first.prerelease || first.extendedArt {
		t.Errorf("Expected a plain card, got %+v", first)
	}

	second := results[1]
	if !second.foil || !second.prerelease {
		t.Errorf("Expected foil prerelease, got %+v", second)
	}
	if second.name != "Whiskervale Forerunner" {
		t.Errorf("Expected parenthetical suffix stripped from identity, got %q", second.name)
	}

	if !results[2].extendedArt {
		t.Errorf("Expected '(alternative art)' to flag extended art, got %+v", results[2])
	}
}

func TestParseProductSkips(t *testing.T) {
	s := newTestScraper("Bloomburrow")

	results := parseTestPage(t, s, productsPage(
		product("Bloomburrow: Carrot Cake", "Slutsåld", "12 kr"),
		product("Bloomburrow: Carrot Cake (italiensk)", "1 i butiken", "12 kr"),
		product("Bloomburrow: Carrot Cake (tysk)", "1 i butiken", "12 kr"),
		product("Bloomburrow: Rabbit Token", "1 i butiken", "2 kr"),
		product("Unknown Set: Carrot Cake", "1 i butiken", "12 kr"),
		product("Bloomburrow: Forest", "4 i butiken", "2 kr"),
		product("Bloomburrow: Carrot Cake", "1 i butiken", "12 kr"),
	))

	// sold out, non-english, token, unknown set and basic land all drop out
	if len(results) != 1 {
		t.Fatalf("Expected 1 card to survive, got %d: %+v", len(results), results)
	}
	if results[0].name != "Carrot Cake" {
		t.Errorf("Expected 'Carrot Cake', got %q", results[0].name)
	}
}

func TestDiscoverCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != categoryPath {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body><div class="categories row">
			<h4 class="text-center"><a href="/2441-10th-edition/">10th Edition</a></h4>
			<h4 class="text-center"><a href="/4242-bloomburrow/">Bloomburrow</a></h4>
		</div></body></html>`))
	}))
	defer server.Close()

	s := New(server.URL, server.Client(), 2, 2)
	categories, err := s.discoverCategories(context.Background())
	if err != nil {
		t.Fatalf("discoverCategories returned error: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(categories))
	}
	if categories[0].href != "/2441-10th-edition/" || categories[0].name != "10th Edition" {
		t.Errorf("Unexpected first category %+v", categories[0])
	}
}

func TestListCards(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(categoryPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="categories row">
			<h4 class="text-center"><a href="/2441-10th-edition/">10th Edition</a></h4>
		</div></body></html>`))
	})
	mux.HandleFunc("/2441-10th-edition/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsPage(
			product("10th Edition: Loxodon Mystic", "9 i butiken", "5.00 kr"),
		)))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := New(server.URL, server.Client(), 2, 2)
	grouped, err := s.ListCards(context.Background())
	if err != nil {
		t.Fatalf("ListCards returned error: %v", err)
	}

	bucket, ok := grouped["loxodon mystic"]
	if !ok {
		t.Fatalf("Expected a 'loxodon mystic' bucket, got %v", grouped)
	}
	if len(bucket) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(bucket))
	}
	card := bucket[0]
	if card.MaxStock != 3 {
		t.Errorf("Expected max stock 3, got %d", card.MaxStock)
	}
	if card.TradeInPrice != 0 {
		t.Errorf("Expected no trade-in price, got %d", card.TradeInPrice)
	}
	if card.ImageURL != server.URL+"/media/products/thumbs/abc.250x250.png" {
		t.Errorf("Unexpected image URL %q", card.ImageURL)
	}
}
