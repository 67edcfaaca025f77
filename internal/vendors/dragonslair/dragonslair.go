package dragonslair

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-scan/internal/cards"
	"price-scan/internal/fetch"
)

const (
	paginationSelector = "div.container.align-center.pagination a"
	cardBackImageURL   = "https://upload.wikimedia.org/wikipedia/en/a/aa/Magic_the_gathering-card_back.jpg"
)

// Converted mana costs the storefront actually lists. 14 has no page.
var cmcsAvailable = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 15, 16}

var (
	unwantedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(skadad\)`),
		regexp.MustCompile(`(?i)\( Skadad \)`),
		regexp.MustCompile(`(?i)\(Spelad\)`),
		regexp.MustCompile(`(?i)\[Token\]`),
	}
	foilPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(Foil\)`),
		regexp.MustCompile(`(?i)\(Etched Foil\)`),
		regexp.MustCompile(`(?i)\(Foil Etched\)`),
	}
	prereleasePattern  = regexp.MustCompile(`(?i)\(Prerelease\)`)
	showcasePattern    = regexp.MustCompile(`(?i)\(Showcase\)`)
	extendedArtPattern = regexp.MustCompile(`(?i)\(Extended Art\)`)
)

var errNoPriceAvailable = errors.New("dragonslair: no price available")

// Scraper walks the Dragonslair single-card pages, one partition per
// converted mana cost.
type Scraper struct {
	baseURL   string
	scheduler *fetch.Scheduler
}

func New(baseURL string, client *http.Client, discoverWorkers, fetchWorkers int) *Scraper {
	s := &Scraper{baseURL: strings.TrimRight(baseURL, "/")}
	s.scheduler = fetch.NewScheduler(client, fetch.TrailingPageCount(paginationSelector), discoverWorkers, fetchWorkers, s.parsePage)
	return s
}

func (s *Scraper) ID() cards.VendorID {
	return cards.VendorDragonslair
}

func (s *Scraper) ListCards(ctx context.Context) (map[string][]cards.VendorCard, error) {
	return s.scheduler.Run(ctx, s.partitions()), nil
}

func (s *Scraper) partitions() []fetch.Partition {
	parts := make([]fetch.Partition, 0, len(cmcsAvailable))
	for _, cmc := range cmcsAvailable {
		cmc := cmc
		parts = append(parts, fetch.Partition{
			Key:      fmt.Sprintf("cmc-%d", cmc),
			ProbeURL: s.pageURL(cmc, 0),
			PageURL:  func(page int) string { return s.pageURL(cmc, page) },
		})
	}
	return parts
}

func (s *Scraper) pageURL(cmc, page int) string {
	return fmt.Sprintf("%s/product/magic/card-singles/store:kungsholmstorg/cmc-%d/%d", s.baseURL, cmc, page)
}

func (s *Scraper) parsePage(doc *goquery.Document, pageURL string) ([]cards.VendorCard, error) {
	var out []cards.VendorCard

	doc.Find("tr[id*='product-row-']").Each(func(_ int, row *goquery.Selection) {
		if card, ok := s.parseRow(row); ok {
			out = append(out, card)
		}
	})

	return out, nil
}

func (s *Scraper) parseRow(row *goquery.Selection) (cards.VendorCard, bool) {
	rawName := rowText(row.Find("a.fancybox").First())
	if rawName == "" {
		// some listings carry no image link, the name sits in the cell
		rawName = rowText(row.Find("td.wrap").First())
	}

	for _, pattern := range unwantedPatterns {
		if pattern.MatchString(rawName) {
			log.Printf("dragonslair: skipping unwanted card %q (matched %s)", rawName, pattern)
			return cards.VendorCard{}, false
		}
	}

	name, err := cards.NewCardName(rawName)
	if err != nil {
		return cards.VendorCard{}, false
	}

	imageURL := cardBackImageURL
	if href, ok := row.Find("a.fancybox").First().Attr("href"); ok {
		imageURL = s.baseURL + href
	}

	setText := "UNKNOWN"
	if title, ok := row.Find("img[title]").First().Attr("title"); ok {
		setText = strings.TrimSpace(title)
	}
	if setText == "UNKNOWN" {
		if alt := rowText(row.Find("td.align-right a").First()); alt != "" {
			setText = alt
		}
	}
	set, err := cards.NewSetName(setText)
	if err != nil {
		log.Printf("dragonslair: bad set name for %q: %v", name.AlmostRaw, err)
		return cards.VendorCard{}, false
	}

	var collectorNumber *cards.CollectorNumber
	if text := rowText(row.Find("td").Eq(2)); text != "" {
		if cn, err := cards.NewCollectorNumber(text); err == nil {
			collectorNumber = &cn
		} else {
			log.Printf("dragonslair: unable to get collector number for %q: %v", name.Raw, err)
		}
	}

	priceSEK, err := rowPrice(row)
	if err != nil {
		log.Printf("dragonslair: price for %q in %q: %v", name.AlmostRaw, set.Raw, err)
		return cards.VendorCard{}, false
	}

	tradeIn, err := buyinValue(row)
	if err != nil {
		log.Printf("dragonslair: trade-in price for %q: %v", name.AlmostRaw, err)
		return cards.VendorCard{}, false
	}

	current, max := rowStock(row)

	return cards.VendorCard{
		Name:            name,
		Vendor:          cards.VendorDragonslair,
		Foil:            matchesAny(foilPatterns, rawName),
		ImageURL:        imageURL,
		ExtendedArt:     extendedArtPattern.MatchString(rawName),
		Prerelease:      prereleasePattern.MatchString(rawName),
		Showcase:        showcasePattern.MatchString(rawName),
		Set:             set,
		Price:           cards.NewPrice(float64(priceSEK), cards.SEK),
		TradeInPrice:    tradeIn,
		CurrentStock:    current,
		MaxStock:        max,
		CollectorNumber: collectorNumber,
	}, true
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// rowText collapses the markup's heavy indentation into single spaces.
func rowText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// rowPrice reads the price cell. The bold span means the card is in the
// store, the subtle one a catalogue price. A literal "-" means no price at
// all and the row is unusable.
func rowPrice(row *goquery.Selection) (int, error) {
	sel := row.Find("td.align-right span.format-bold").First()
	if sel.Length() == 0 {
		sel = row.Find("td.align-right span.format-subtle").First()
	}
	if sel.Length() == 0 {
		return 0, nil
	}
	return parsePrice(sel.Text())
}

func parsePrice(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "-" {
		return 0, errNoPriceAvailable
	}
	text = strings.ReplaceAll(text, "Slut, ", "")
	text = strings.ReplaceAll(text, "Fullt, ", "")
	text = strings.ReplaceAll(text, "kr", "")
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func buyinValue(row *goquery.Selection) (int, error) {
	v, ok := row.Attr("data-buyin")
	if !ok {
		return 0, errors.New("missing data-buyin attribute")
	}
	return strconv.Atoi(v)
}

// rowStock reads "1/2 st" shaped stock cells.
func rowStock(row *goquery.Selection) (current, max int) {
	text := row.Find("td.align-right").Eq(3).Text()
	text = strings.ReplaceAll(text, "/", " ")
	text = strings.ReplaceAll(text, "st", "")

	var numbers []int
	for _, field := range strings.Fields(text) {
		if n, err := strconv.Atoi(field); err == nil {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return 0, 0
	}
	return numbers[0], numbers[len(numbers)-1]
}
