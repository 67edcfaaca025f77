package compare

import (
	"context"
	"log"

	"price-scan/internal/cards"
	"price-scan/internal/concurrency"
)

// LivePriceFetcher resolves a price from a live source when the reference
// feed has none for the printing.
type LivePriceFetcher interface {
	LivePrice(ctx context.Context, name cards.CardName, set cards.SetName) (cards.Price, error)
}

// Comparer prices vendor listings against the reference feed, falling back
// to live lookups for printings the feed has no price for.
type Comparer struct {
	reference          map[string][]cards.ReferenceCard
	fetcher            LivePriceFetcher
	externalPriceCheck bool
	workers            int
}

func New(reference map[string][]cards.ReferenceCard, fetcher LivePriceFetcher, externalPriceCheck bool, workers int) *Comparer {
	return &Comparer{
		reference:          reference,
		fetcher:            fetcher,
		externalPriceCheck: externalPriceCheck,
		workers:            workers,
	}
}

// Compare prices every vendor listing and groups the results by identity.
// Foil and non-foil listings run as separate passes since they price
// against different reference columns.
func (c *Comparer) Compare(ctx context.Context, vendorCards map[string][]cards.VendorCard) map[string][]cards.ComparedCard {
	foil, nonFoil := separateFoil(vendorCards)

	log.Printf("compare: comparing %d non-foil identities", len(nonFoil))
	results := c.compare(ctx, nonFoil)
	log.Printf("compare: comparing %d foil identities", len(foil))
	results = append(results, c.compare(ctx, foil)...)

	grouped := make(map[string][]cards.ComparedCard)
	for _, card := range results {
		key := card.VendorCard.Name.Cleaned
		grouped[key] = append(grouped[key], card)
	}
	return grouped
}

func separateFoil(vendorCards map[string][]cards.VendorCard) (foil, nonFoil map[string][]cards.VendorCard) {
	foil = make(map[string][]cards.VendorCard)
	nonFoil = make(map[string][]cards.VendorCard)

	for key, list := range vendorCards {
		for _, card := range list {
			if card.Foil {
				foil[key] = append(foil[key], card)
			} else {
				nonFoil[key] = append(nonFoil[key], card)
			}
		}
	}
	return foil, nonFoil
}

func (c *Comparer) compare(ctx context.Context, vendorCards map[string][]cards.VendorCard) []cards.ComparedCard {
	buckets := make([][]cards.VendorCard, 0, len(vendorCards))
	for _, list := range vendorCards {
		buckets = append(buckets, list)
	}

	opts := concurrency.ParallelOptions{MaxWorkers: c.workers}
	results, errs := concurrency.FlatMap(ctx, buckets, opts, func(ctx context.Context, bucket []cards.VendorCard) ([]cards.ComparedCard, error) {
		return c.compareBucket(ctx, bucket), nil
	})
	for _, err := range errs {
		log.Printf("compare: %v", err)
	}
	return results
}

// compareBucket prices all listings sharing one identity.
func (c *Comparer) compareBucket(ctx context.Context, bucket []cards.VendorCard) []cards.ComparedCard {
	if len(bucket) == 0 {
		return nil
	}

	reference := c.lookupReference(bucket[0].Name)
	if len(reference) == 0 {
		log.Printf("compare: no reference card found for %s", bucket[0].Name.AlmostRaw)
		return nil
	}

	var out []cards.ComparedCard
	for _, vendorCard := range bucket {
		if compared, ok := c.compareCard(ctx, vendorCard, reference); ok {
			out = append(out, compared)
		}
	}
	return out
}

// lookupReference finds the reference printings for an identity. The exact
// key covers nearly everything; double-faced listings whose vendors name
// only one face need the containment scan.
func (c *Comparer) lookupReference(name cards.CardName) []cards.ReferenceCard {
	if refs, ok := c.reference[name.Cleaned]; ok {
		return refs
	}
	for _, refs := range c.reference {
		if len(refs) > 0 && refs[0].Name.Equal(name) {
			return refs
		}
	}
	return nil
}

func (c *Comparer) compareCard(ctx context.Context, vendorCard cards.VendorCard, reference []cards.ReferenceCard) (cards.ComparedCard, bool) {
	match, ok := matchPrinting(vendorCard, reference)
	if !ok {
		log.Printf("compare: no matching printing for %s in set %s", vendorCard.Name.AlmostRaw, vendorCard.Set.Cleaned)
		return cards.ComparedCard{}, false
	}

	refPrice, ok := c.referencePrice(ctx, vendorCard, match)
	if !ok {
		return cards.ComparedCard{}, false
	}

	diff := int(vendorCard.Price.ConvertTo(cards.SEK).Amount - refPrice.ConvertTo(cards.SEK).Amount)
	return cards.ComparedCard{
		VendorCard:    vendorCard,
		ReferenceCard: match,
		PriceDiff:     diff,
	}, true
}

// matchPrinting picks the reference printing for a listing: an exact
// collector number match wins, a set match is the fallback.
func matchPrinting(vendorCard cards.VendorCard, reference []cards.ReferenceCard) (cards.ReferenceCard, bool) {
	if vendorCard.CollectorNumber != nil {
		for _, ref := range reference {
			if ref.CollectorNumber != nil && ref.CollectorNumber.Equal(*vendorCard.CollectorNumber) {
				return ref, true
			}
		}
	}
	for _, ref := range reference {
		if ref.Set.Equal(vendorCard.Set) {
			return ref, true
		}
	}
	return cards.ReferenceCard{}, false
}

// referencePrice picks the reference column for the listing's finish and
// falls back to a live lookup when the feed has no price. With live checks
// disabled a missing price means the listing cannot be compared at all.
func (c *Comparer) referencePrice(ctx context.Context, vendorCard cards.VendorCard, match cards.ReferenceCard) (cards.Price, bool) {
	column := match.Prices.EUR
	if vendorCard.Foil {
		column = match.Prices.EURFoil
	}
	if column != nil {
		return *column, true
	}

	if !c.externalPriceCheck {
		return cards.Price{}, false
	}
	price, err := c.fetcher.LivePrice(ctx, vendorCard.Name, vendorCard.Set)
	if err != nil {
		log.Printf("compare: live price fetch failed for %s: %v", vendorCard.Name.AlmostRaw, err)
		return cards.NewPrice(0, cards.SEK), true
	}
	return price, true
}
