package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Which stages scrape live data; a disabled stage loads the newest
	// snapshot from DataDir instead.
	Dragonslair bool
	Alphaspel   bool
	Scryfall    bool

	// Comparator behavior
	ExternalPriceCheck bool
	NicePriceDiff      int

	// One concurrency cap per pipeline stage.
	DiscoverWorkers int
	FetchWorkers    int
	CompareWorkers  int

	DataDir string

	DragonslairBaseURL string
	AlphaspelBaseURL   string
	ScryfallBaseURL    string
	MtgStocksBaseURL   string

	// SFTP (report upload)
	SFTPHost      string
	SFTPPort      int
	SFTPUser      string
	SFTPPass      string
	SFTPRemoteDir string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Dragonslair: getenvBool("DL", true),
		Alphaspel:   getenvBool("ALPHASPEL", true),
		Scryfall:    getenvBool("SCRYFALL", true),

		ExternalPriceCheck: getenvBool("EXTERNAL_PRICE_CHECK", true),
		NicePriceDiff:      getenvInt("NICE_PRICE_DIFF", 0),

		DiscoverWorkers: getenvInt("DISCOVER_WORKERS", 10),
		FetchWorkers:    getenvInt("FETCH_WORKERS", 20),
		CompareWorkers:  getenvInt("COMPARE_WORKERS", 25),

		DataDir: getenv("DATA_DIR", "data"),

		DragonslairBaseURL: getenv("DRAGONSLAIR_BASE_URL", "https://astraeus.dragonslair.se"),
		AlphaspelBaseURL:   getenv("ALPHASPEL_BASE_URL", "https://alphaspel.se"),
		ScryfallBaseURL:    getenv("SCRYFALL_BASE_URL", "https://api.scryfall.com"),
		MtgStocksBaseURL:   getenv("MTG_STOCKS_BASE_URL", "https://api.mtgstocks.com"),

		SFTPHost:      os.Getenv("SFTP_HOST"),
		SFTPPort:      getenvInt("SFTP_PORT", 22),
		SFTPUser:      os.Getenv("SFTP_USER"),
		SFTPPass:      os.Getenv("SFTP_PASS"),
		SFTPRemoteDir: getenv("SFTP_REMOTE_DIR", "/"),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getenvBool follows the "1" convention used by the cron wrappers.
func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v == "1"
}
