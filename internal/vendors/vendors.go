package vendors

import (
	"context"

	"price-scan/internal/cards"
)

// Provider is one storefront adapter. ListCards walks the whole catalogue
// and returns listings grouped by card identity.
type Provider interface {
	ID() cards.VendorID
	ListCards(ctx context.Context) (map[string][]cards.VendorCard, error)
}
