package alphaspel

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-scan/internal/cards"
	"price-scan/internal/fetch"
	"price-scan/internal/httpx"
)

const (
	categoryPath       = "/1978-mtg-loskort/"
	categorySelector   = ".categories.row h4.text-center a"
	paginationSelector = "ul.pagination li"
	productSelector    = ".products.row .product"

	// The storefront caps singles at 3 per customer; the product page
	// never states it.
	maxStockPerCard = 3
)

var (
	promoPattern = regexp.MustCompile(`(?i)\((?:Promo|Prerelease)\)`)
	tokenPattern = regexp.MustCompile(`Token`)
	pricePattern = regexp.MustCompile(`\d+`)

	// Foil markers are matched case sensitively against the name tail.
	foilPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(Foil\)`),
		regexp.MustCompile(`\(Etched Foil\)`),
		regexp.MustCompile(`\(Foil Etched\)`),
	}

	nonEnglishMarkers = []string{"(italiensk)", "(tysk)", "(rysk)"}
)

// Scraper walks the Alphaspel MTG singles categories, one partition per
// set category discovered on the landing page.
type Scraper struct {
	baseURL   string
	client    *http.Client
	scheduler *fetch.Scheduler

	// set names from the category landing page, used to split product
	// names into set and card name
	setNames []string
}

func New(baseURL string, client *http.Client, discoverWorkers, fetchWorkers int) *Scraper {
	s := &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
	s.scheduler = fetch.NewScheduler(client, fetch.MaxNumberPageCount(paginationSelector), discoverWorkers, fetchWorkers, s.parsePage)
	return s
}

func (s *Scraper) ID() cards.VendorID {
	return cards.VendorAlphaspel
}

func (s *Scraper) ListCards(ctx context.Context) (map[string][]cards.VendorCard, error) {
	categories, err := s.discoverCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("alphaspel: discover categories: %w", err)
	}
	log.Printf("alphaspel: found %d set categories", len(categories))

	s.setNames = make([]string, 0, len(categories))
	partitions := make([]fetch.Partition, 0, len(categories))
	for _, cat := range categories {
		cat := cat
		s.setNames = append(s.setNames, cat.name)
		partitions = append(partitions, fetch.Partition{
			Key:      cat.href,
			ProbeURL: s.pageURL(cat.href, 1),
			PageURL:  func(page int) string { return s.pageURL(cat.href, page) },
		})
	}

	return s.scheduler.Run(ctx, partitions), nil
}

type category struct {
	href string
	name string
}

func (s *Scraper) discoverCategories(ctx context.Context) ([]category, error) {
	header := http.Header{}
	header.Set("Accept", "*/*")

	body, err := httpx.Get(ctx, s.client, s.baseURL+categoryPath, header, httpx.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var categories []category
	doc.Find(categorySelector).Each(func(_ int, el *goquery.Selection) {
		href, ok := el.Attr("href")
		if !ok {
			return
		}
		categories = append(categories, category{
			href: href,
			name: strings.Join(strings.Fields(el.Text()), " "),
		})
	})
	return categories, nil
}

func (s *Scraper) pageURL(href string, page int) string {
	return fmt.Sprintf("%s%s?order_by=stock_a&ordering=desc&page=%d", s.baseURL, href, page)
}

func (s *Scraper) parsePage(doc *goquery.Document, pageURL string) ([]cards.VendorCard, error) {
	var out []cards.VendorCard

	doc.Find(productSelector).Each(func(_ int, product *goquery.Selection) {
		card, err := s.parseProduct(product)
		if err != nil {
			log.Printf("alphaspel: skipping product on %s: %v", pageURL, err)
			return
		}
		out = append(out, card)
	})

	return out, nil
}

func (s *Scraper) parseProduct(product *goquery.Selection) (cards.VendorCard, error) {
	stockText := strings.TrimSpace(product.Find(".stock").First().Text())
	if stockText == "" {
		return cards.VendorCard{}, fmt.Errorf("no stock information found")
	}
	if stockText == "Slutsåld" {
		return cards.VendorCard{}, fmt.Errorf("card is sold out")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(stockText, "i butiken", "")))
	if err != nil {
		return cards.VendorCard{}, fmt.Errorf("bad stock %q: %w", stockText, err)
	}

	productName := strings.Join(strings.Fields(product.Find(".product-name").First().Text()), " ")
	if productName == "" {
		return cards.VendorCard{}, fmt.Errorf("no product name found")
	}

	lower := strings.ToLower(productName)
	for _, marker := range nonEnglishMarkers {
		if strings.Contains(lower, marker) {
			return cards.VendorCard{}, fmt.Errorf("card %q is not english", productName)
		}
	}
	if tokenPattern.MatchString(productName) {
		return cards.VendorCard{}, fmt.Errorf("card %q is a token", productName)
	}

	setName, rawName, ok := s.splitProductName(productName)
	if !ok {
		return cards.VendorCard{}, fmt.Errorf("unable to find what set %q belongs to", productName)
	}

	priceText := product.Find(".price.text-success").First().Text()
	match := pricePattern.FindString(priceText)
	if match == "" {
		return cards.VendorCard{}, fmt.Errorf("no numeric value in price %q", priceText)
	}
	priceSEK, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return cards.VendorCard{}, fmt.Errorf("bad price %q: %w", priceText, err)
	}

	name, err := cards.NewCardName(rawName)
	if err != nil {
		return cards.VendorCard{}, fmt.Errorf("bad card name %q: %w", rawName, err)
	}
	set, err := cards.NewSetName(setName)
	if err != nil {
		return cards.VendorCard{}, fmt.Errorf("bad set name %q: %w", setName, err)
	}

	imageURL := ""
	if src, ok := product.Find("img.img-responsive.center-block").First().Attr("src"); ok {
		imageURL = s.baseURL + strings.TrimSpace(src)
	}

	return cards.VendorCard{
		Name:         name,
		Vendor:       cards.VendorAlphaspel,
		Foil:         matchesAny(foilPatterns, rawName),
		ImageURL:     imageURL,
		ExtendedArt:  strings.Contains(productName, "(alternative art)"),
		Prerelease:   promoPattern.MatchString(productName),
		Set:          set,
		Price:        cards.NewPrice(priceSEK, cards.SEK),
		CurrentStock: stock,
		MaxStock:     maxStockPerCard,
	}, nil
}

// splitProductName finds which known set the product name leads with and
// returns the set plus the card name that follows it. "10th Edition:
// Loxodon Mystic" splits into "10th Edition" and "Loxodon Mystic".
func (s *Scraper) splitProductName(productName string) (set, name string, ok bool) {
	lower := strings.ToLower(productName)
	for _, candidate := range s.setNames {
		idx := strings.Index(lower, strings.ToLower(candidate))
		if idx < 0 {
			continue
		}
		tail := productName[idx+len(candidate):]
		return candidate, strings.TrimSpace(strings.ReplaceAll(tail, ":", "")), true
	}
	return "", "", false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
