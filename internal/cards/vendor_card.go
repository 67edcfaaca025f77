package cards

// VendorID tags which storefront a card was scraped from.
type VendorID string

const (
	VendorDragonslair VendorID = "dragonslair"
	VendorAlphaspel   VendorID = "alphaspel"
)

// VendorCard is one storefront listing, normalized into the shared shape all
// vendor adapters produce.
type VendorCard struct {
	Name            CardName         `json:"name"`
	Vendor          VendorID         `json:"vendor"`
	Foil            bool             `json:"foil"`
	ImageURL        string           `json:"image_url"`
	ExtendedArt     bool             `json:"extended_art"`
	Prerelease      bool             `json:"prerelease"`
	Showcase        bool             `json:"showcase"`
	Set             SetName          `json:"set"`
	Price           Price            `json:"price"`
	TradeInPrice    int              `json:"trade_in_price"`
	CurrentStock    int              `json:"current_stock"`
	MaxStock        int              `json:"max_stock"`
	CollectorNumber *CollectorNumber `json:"collector_number,omitempty"`
}

// GroupVendorCards buckets listings by their identity key. Accumulation is
// order independent, so concurrent fetch results group deterministically.
func GroupVendorCards(list []VendorCard) map[string][]VendorCard {
	grouped := make(map[string][]VendorCard)
	for _, c := range list {
		grouped[c.Name.Cleaned] = append(grouped[c.Name.Cleaned], c)
	}
	return grouped
}

// MergeVendorCards appends the buckets of src into dst.
func MergeVendorCards(dst, src map[string][]VendorCard) map[string][]VendorCard {
	if dst == nil {
		dst = make(map[string][]VendorCard)
	}
	for k, v := range src {
		dst[k] = append(dst[k], v...)
	}
	return dst
}
