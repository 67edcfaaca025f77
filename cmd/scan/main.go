package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"price-scan/internal/cards"
	"price-scan/internal/compare"
	"price-scan/internal/config"
	"price-scan/internal/report"
	"price-scan/internal/scryfall"
	"price-scan/internal/sftpclient"
	"price-scan/internal/stocks"
	"price-scan/internal/storage"
	"price-scan/internal/vendors"
	"price-scan/internal/vendors/alphaspel"
	"price-scan/internal/vendors/dragonslair"
)

type vendorResult struct {
	id    cards.VendorID
	cards map[string][]cards.VendorCard
	err   error
}

func main() {
	var (
		outPath    = flag.String("out", "index.html", "output html path")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated page via SFTP")
	)
	flag.Parse()

	// whole-catalogue scrapes take hours on a slow day
	rootCtx, rootCancel := context.WithTimeout(context.Background(), 8*time.Hour)
	defer rootCancel()

	cfg := config.Load()
	client := &http.Client{Timeout: 90 * time.Second}

	if dir := filepath.Dir(*outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	vendorCards := collectVendorCards(rootCtx, cfg, client)
	log.Printf("collected %d card identities across vendors", len(vendorCards))

	reference := loadReferenceCards(rootCtx, cfg, client)
	log.Printf("loaded %d reference identities", len(reference))

	fetcher := stocks.NewPriceFetcher(cfg.MtgStocksBaseURL, client)
	comparer := compare.New(reference, fetcher, cfg.ExternalPriceCheck, cfg.CompareWorkers)

	compareCtx, compareCancel := context.WithTimeout(rootCtx, 4*time.Hour)
	defer compareCancel()
	compared := comparer.Compare(compareCtx, vendorCards)

	comparedPath := storage.TimestampedPath(cfg.DataDir, "compared_cards", time.Now())
	if err := storage.SaveJSON(comparedPath, compared); err != nil {
		log.Fatal(err)
	}
	log.Printf("saved %d compared identities to %s", len(compared), comparedPath)

	nicePrice := report.FilterNicePrice(compared, cfg.NicePriceDiff)
	if err := report.WritePage(*outPath, nicePrice, time.Now()); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d nice-price cards to %s", len(nicePrice), *outPath)

	if *uploadSFTP {
		uploadReport(rootCtx, cfg, *outPath)
	}
}

// collectVendorCards runs every enabled vendor scrape in parallel and
// merges the results. A disabled vendor contributes its newest snapshot
// instead.
func collectVendorCards(ctx context.Context, cfg config.Config, client *http.Client) map[string][]cards.VendorCard {
	type stage struct {
		provider vendors.Provider
		enabled  bool
		prefix   string
	}
	stages := []stage{
		{
			provider: dragonslair.New(cfg.DragonslairBaseURL, client, cfg.DiscoverWorkers, cfg.FetchWorkers),
			enabled:  cfg.Dragonslair,
			prefix:   "dragonslair_cards",
		},
		{
			provider: alphaspel.New(cfg.AlphaspelBaseURL, client, cfg.DiscoverWorkers, cfg.FetchWorkers),
			enabled:  cfg.Alphaspel,
			prefix:   "alphaspel_cards",
		},
	}

	resultsCh := make(chan vendorResult, len(stages))
	running := 0

	merged := make(map[string][]cards.VendorCard)
	for _, s := range stages {
		if !s.enabled {
			merged = cards.MergeVendorCards(merged, loadVendorSnapshot(cfg.DataDir, s.prefix))
			continue
		}

		s := s
		running++
		go func() {
			scrapeCtx, cancel := context.WithTimeout(ctx, 6*time.Hour)
			defer cancel()

			list, err := s.provider.ListCards(scrapeCtx)
			resultsCh <- vendorResult{id: s.provider.ID(), cards: list, err: err}
		}()
	}

	for i := 0; i < running; i++ {
		r := <-resultsCh
		if r.err != nil {
			log.Printf("WARN: %s failed: %v (using %d identities fetched)", r.id, r.err, len(r.cards))
		}
		log.Printf("%s: %d card identities", r.id, len(r.cards))

		path := storage.TimestampedPath(cfg.DataDir, string(r.id)+"_cards", time.Now())
		if err := storage.SaveJSON(path, r.cards); err != nil {
			log.Printf("WARN: saving %s snapshot: %v", r.id, err)
		}

		merged = cards.MergeVendorCards(merged, r.cards)
	}
	return merged
}

func loadVendorSnapshot(dir, prefix string) map[string][]cards.VendorCard {
	path := storage.NewestFile(dir, prefix)
	if path == "" {
		log.Printf("WARN: no %s snapshot found, vendor contributes nothing", prefix)
		return nil
	}
	snapshot, err := storage.LoadJSON[map[string][]cards.VendorCard](path)
	if err != nil {
		log.Printf("WARN: loading %s: %v", path, err)
		return nil
	}
	log.Printf("loaded %d identities from snapshot %s", len(snapshot), path)
	return snapshot
}

// loadReferenceCards fetches today's bulk feed, or falls back to the
// newest converted snapshot when the stage is disabled.
func loadReferenceCards(ctx context.Context, cfg config.Config, client *http.Client) map[string][]cards.ReferenceCard {
	if !cfg.Scryfall {
		path := storage.NewestFile(cfg.DataDir, "scryfall_cards")
		if path == "" {
			log.Fatal("scryfall stage disabled and no snapshot available")
		}
		snapshot, err := storage.LoadJSON[map[string][]cards.ReferenceCard](path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("loaded %d reference identities from snapshot %s", len(snapshot), path)
		return snapshot
	}

	feedCtx, cancel := context.WithTimeout(ctx, 2*time.Hour)
	defer cancel()

	sc := scryfall.New(cfg.ScryfallBaseURL, client, filepath.Join(cfg.DataDir, "scryfall_prices_raw"))
	reference, err := sc.ReferenceCards(feedCtx)
	if err != nil {
		log.Fatal(err)
	}

	path := storage.TimestampedPath(cfg.DataDir, "scryfall_cards", time.Now())
	if err := storage.SaveJSON(path, reference); err != nil {
		log.Printf("WARN: saving scryfall snapshot: %v", err)
	}
	return reference
}

func uploadReport(ctx context.Context, cfg config.Config, outPath string) {
	upCfg := sftpclient.Config{
		Host:      cfg.SFTPHost,
		Port:      cfg.SFTPPort,
		User:      cfg.SFTPUser,
		Pass:      cfg.SFTPPass,
		RemoteDir: cfg.SFTPRemoteDir,
	}

	upCtx, upCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer upCancel()

	remoteName := filepath.Base(outPath)
	if err := sftpclient.UploadFile(upCtx, upCfg, outPath, remoteName); err != nil {
		log.Fatal(err)
	}
	log.Printf("uploaded to sftp://%s:%d%s/%s", upCfg.Host, upCfg.Port, upCfg.RemoteDir, remoteName)
}
