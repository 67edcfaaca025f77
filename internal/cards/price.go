package cards

import "fmt"

// Price is a currency-tagged amount. Two prices are never compared in their
// native currencies; ordering and equality go through EUR.
type Price struct {
	Amount   float64  `json:"amount"`
	Currency Currency `json:"currency"`
}

func NewPrice(amount float64, currency Currency) Price {
	return Price{Amount: amount, Currency: currency}
}

// EUR returns the amount converted to EUR, the canonical comparison currency.
func (p Price) EUR() float64 {
	return p.Amount * rateToEUR[p.Currency]
}

// ConvertTo returns the same value expressed in the target currency.
func (p Price) ConvertTo(target Currency) Price {
	if p.Currency == target {
		return p
	}
	return Price{Amount: p.EUR() * rateFromEUR[target], Currency: target}
}

func (p Price) Less(other Price) bool {
	return p.EUR() < other.EUR()
}

func (p Price) Equal(other Price) bool {
	return p.EUR() == other.EUR()
}

// String always renders in SEK, the currency the report is read in.
func (p Price) String() string {
	return fmt.Sprintf("%.2f SEK", p.ConvertTo(SEK).Amount)
}
