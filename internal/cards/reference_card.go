package cards

// ReferencePrices carries the bulk feed's per-finish prices; either may be
// missing for a given printing.
type ReferencePrices struct {
	EUR     *Price `json:"eur"`
	EURFoil *Price `json:"eur_foil"`
}

// ReferenceCard is one printing from the bulk reference feed.
type ReferenceCard struct {
	Name            CardName         `json:"name"`
	Set             SetName          `json:"set"`
	ImageURL        string           `json:"image_url"`
	Prices          ReferencePrices  `json:"prices"`
	CollectorNumber *CollectorNumber `json:"collector_number,omitempty"`
}

// GroupReferenceCards buckets printings by identity key, the shape the
// comparator indexes into.
func GroupReferenceCards(list []ReferenceCard) map[string][]ReferenceCard {
	grouped := make(map[string][]ReferenceCard)
	for _, c := range list {
		grouped[c.Name.Cleaned] = append(grouped[c.Name.Cleaned], c)
	}
	return grouped
}
