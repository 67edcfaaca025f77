package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"price-scan/internal/cards"
	"price-scan/internal/config"
	"price-scan/internal/report"
	"price-scan/internal/sftpclient"
	"price-scan/internal/storage"
)

// Regenerates the nice-price page from the newest compared snapshot,
// without touching any storefront. Useful for tweaking the price limit
// after a scan.
func main() {
	var (
		outPath    = flag.String("out", "index.html", "output html path")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated page via SFTP")
	)
	flag.Parse()

	cfg := config.Load()

	path := storage.NewestFile(cfg.DataDir, "compared_cards")
	if path == "" {
		log.Fatalf("no compared_cards snapshot in %s, run a scan first", cfg.DataDir)
	}
	compared, err := storage.LoadJSON[map[string][]cards.ComparedCard](path)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d compared identities from %s", len(compared), path)

	if dir := filepath.Dir(*outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	nicePrice := report.FilterNicePrice(compared, cfg.NicePriceDiff)
	if err := report.WritePage(*outPath, nicePrice, time.Now()); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d nice-price cards to %s", len(nicePrice), *outPath)

	if *uploadSFTP {
		upCfg := sftpclient.Config{
			Host:      cfg.SFTPHost,
			Port:      cfg.SFTPPort,
			User:      cfg.SFTPUser,
			Pass:      cfg.SFTPPass,
			RemoteDir: cfg.SFTPRemoteDir,
		}

		upCtx, upCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer upCancel()

		remoteName := filepath.Base(*outPath)
		if err := sftpclient.UploadFile(upCtx, upCfg, *outPath, remoteName); err != nil {
			log.Fatal(err)
		}
		log.Printf("uploaded to sftp://%s:%d%s/%s", upCfg.Host, upCfg.Port, upCfg.RemoteDir, remoteName)
	}
}
