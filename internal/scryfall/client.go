package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"price-scan/internal/cards"
	"price-scan/internal/httpx"
)

const (
	rawFilePrefix    = "scryfall_download"
	rawFileSuffix    = ".json.br"
	cardBackImageURL = "https://upload.wikimedia.org/wikipedia/en/a/aa/Magic_the_gathering-card_back.jpg"

	// The bulk dataset carrying every printing in every language we care
	// about; the other datasets are either too small or oracle-only.
	bulkDataType = "default_cards"
)

// Client downloads the daily bulk price feed and converts it into grouped
// reference cards. The raw feed is cached on disk, brotli compressed, and
// reused for the rest of the day.
type Client struct {
	client  *http.Client
	baseURL string
	dir     string

	now func() time.Time
}

func New(baseURL string, client *http.Client, dir string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
		now:     time.Now,
	}
}

type bulkData struct {
	Data []struct {
		Type        string `json:"type"`
		DownloadURI string `json:"download_uri"`
	} `json:"data"`
}

// rawCard is the slice of a bulk feed entry we actually read.
type rawCard struct {
	Name            string `json:"name"`
	Layout          string `json:"layout"`
	TypeLine        string `json:"type_line"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Prices          struct {
		EUR     flexFloat `json:"eur"`
		EURFoil flexFloat `json:"eur_foil"`
	} `json:"prices"`
	ImageURIs struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
}

// flexFloat reads a price that the feed serves as a string, a number or
// null.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil
		}
		f.Value, f.Valid = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value, f.Valid = v, true
	return nil
}

// ReferenceCards returns today's reference printings grouped by identity,
// downloading the bulk feed only when today's cache is missing.
func (c *Client) ReferenceCards(ctx context.Context) (map[string][]cards.ReferenceCard, error) {
	path, err := c.rawCardsFile(ctx)
	if err != nil {
		return nil, err
	}
	list, err := c.loadCards(path)
	if err != nil {
		return nil, err
	}
	return cards.GroupReferenceCards(list), nil
}

// rawCardsFile returns the path of today's compressed feed, downloading it
// first when necessary.
func (c *Client) rawCardsFile(ctx context.Context) (string, error) {
	if existing := c.existingRawFile(); existing != "" {
		log.Printf("scryfall: using existing price file %s", existing)
		return existing, nil
	}

	uri, err := c.bulkDownloadURI(ctx)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s%s", rawFilePrefix, c.now().Format("2006-01-02"), rawFileSuffix)
	path := filepath.Join(c.dir, name)
	if err := c.downloadTo(ctx, uri, path); err != nil {
		return "", err
	}
	log.Printf("scryfall: saved raw price file to %s", path)
	return path, nil
}

func (c *Client) existingRawFile() string {
	prefix := fmt.Sprintf("%s_%s", rawFilePrefix, c.now().Format("2006-01-02"))
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, rawFileSuffix) {
			return filepath.Join(c.dir, name)
		}
	}
	return ""
}

func (c *Client) bulkDownloadURI(ctx context.Context) (string, error) {
	header := http.Header{}
	header.Set("Accept", "*/*")

	var bulk bulkData
	if err := httpx.GetJSON(ctx, c.client, c.baseURL+"/bulk-data", header, &bulk, httpx.DefaultRetryConfig()); err != nil {
		return "", fmt.Errorf("scryfall: bulk-data listing: %w", err)
	}
	for _, d := range bulk.Data {
		if d.Type == bulkDataType {
			return d.DownloadURI, nil
		}
	}
	return "", fmt.Errorf("scryfall: no %q dataset in bulk-data listing", bulkDataType)
}

// downloadTo streams the feed straight into a compressed file. The feed is
// hundreds of megabytes, so it never lives in memory uncompressed.
func (c *Client) downloadTo(ctx context.Context, uri, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("scryfall: download feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scryfall: download feed: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := brotli.NewWriter(f)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("scryfall: write feed: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// loadCards streams the cached array entry by entry.
func (c *Client) loadCards(path string) ([]cards.ReferenceCard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(brotli.NewReader(f))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("scryfall: feed is not a JSON array: %w", err)
	}

	var list []cards.ReferenceCard
	for dec.More() {
		var raw rawCard
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("scryfall: decode feed entry: %w", err)
		}
		card, ok := convertCard(raw)
		if !ok {
			continue
		}
		list = append(list, card)
	}
	return list, nil
}

func convertCard(raw rawCard) (cards.ReferenceCard, bool) {
	if raw.Layout == "token" || raw.Layout == "art_series" {
		return cards.ReferenceCard{}, false
	}
	if strings.HasPrefix(raw.TypeLine, "Basic Land") {
		return cards.ReferenceCard{}, false
	}

	name, err := cards.NewCardName(raw.Name)
	if err != nil {
		return cards.ReferenceCard{}, false
	}
	set, err := cards.NewSetName(raw.SetName)
	if err != nil {
		log.Printf("scryfall: bad set name %q: %v", raw.SetName, err)
		return cards.ReferenceCard{}, false
	}

	var prices cards.ReferencePrices
	if raw.Prices.EUR.Valid {
		p := cards.NewPrice(raw.Prices.EUR.Value, cards.EUR)
		prices.EUR = &p
	}
	if raw.Prices.EURFoil.Valid {
		p := cards.NewPrice(raw.Prices.EURFoil.Value, cards.EUR)
		prices.EURFoil = &p
	}

	imageURL := raw.ImageURIs.Normal
	if imageURL == "" {
		imageURL = cardBackImageURL
	}

	var collectorNumber *cards.CollectorNumber
	number := raw.CollectorNumber
	for len(number) > 0 && len(number) < 3 {
		number = "0" + number
	}
	if number != "" {
		if cn, err := cards.NewCollectorNumber(raw.Set + "-" + number); err == nil {
			collectorNumber = &cn
		} else {
			log.Printf("scryfall: collector number for %q: %v", raw.Name, err)
		}
	}

	return cards.ReferenceCard{
		Name:            name,
		Set:             set,
		ImageURL:        imageURL,
		Prices:          prices,
		CollectorNumber: collectorNumber,
	}, true
}
