package cards

// ComparedCard pairs a vendor listing with the reference printing it matched
// and the price difference in whole SEK. A positive difference means the
// vendor is more expensive than the reference.
type ComparedCard struct {
	VendorCard    VendorCard    `json:"vendor_card"`
	ReferenceCard ReferenceCard `json:"reference_card"`
	PriceDiff     int           `json:"price_difference"`
}
