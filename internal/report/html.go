package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"price-scan/internal/cards"
)

// FilterNicePrice keeps listings priced attractively against the
// reference. Cheap cards must not cost more than the reference at all,
// mid-range ones get a 5 SEK allowance, everything above 30 SEK uses the
// configured limit.
func FilterNicePrice(compared map[string][]cards.ComparedCard, limit int) []cards.ComparedCard {
	var out []cards.ComparedCard
	for _, bucket := range compared {
		for _, card := range bucket {
			priceSEK := card.VendorCard.Price.ConvertTo(cards.SEK).Amount
			diff := card.PriceDiff

			switch {
			case priceSEK <= 10:
				if diff <= 0 {
					out = append(out, card)
				}
			case priceSEK <= 30:
				if diff <= 5 {
					out = append(out, card)
				}
			default:
				if diff <= limit {
					out = append(out, card)
				}
			}
		}
	}
	return out
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MTG Card Price Comparison, {{.Date}}</title>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/tablesort/5.2.1/tablesort.min.js"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/tablesort/5.2.1/sorts/tablesort.number.min.js"></script>
</head>
<body>
    <h1>MTG-prizes {{.Date}}, Total cards: {{len .Rows}}</h1>
    <table id="card-table">
        <thead>
            <tr>
                <th>Image</th>
                <th>Name</th>
                <th data-sort-method="number">Vendor price (SEK)</th>
                <th data-sort-method="number">Reference price (SEK)</th>
                <th data-sort-method="number">Price Difference</th>
                <th>Vendor</th>
            </tr>
        </thead>
        <tbody>
{{- range .Rows}}
            <tr>
                <td>
                    <div class="card-image-container">
                        <img class="card-image" src="{{.ImageURL}}" alt="{{.Name}}">
                    </div>
                </td>
                <td>{{.Name}}</td>
                <td data-sort="{{.VendorPrice}}">{{.VendorPrice}} SEK</td>
                <td data-sort="{{.ReferencePrice}}">{{.ReferencePrice}} SEK</td>
                <td data-sort="{{.Diff}}">{{.Diff}} SEK</td>
                <td>{{.Vendor}}</td>
            </tr>
{{- end}}
        </tbody>
    </table>
    <script>new Tablesort(document.getElementById("card-table"));</script>
</body>
</html>
`

var page = template.Must(template.New("nice-price").Parse(pageTemplate))

type row struct {
	ImageURL       string
	Name           string
	VendorPrice    string
	ReferencePrice string
	Diff           int
	Vendor         cards.VendorID
}

// WritePage renders the nice-price report to path, best deltas first.
func WritePage(path string, compared []cards.ComparedCard, now time.Time) error {
	sorted := make([]cards.ComparedCard, len(compared))
	copy(sorted, compared)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PriceDiff < sorted[j].PriceDiff })

	rows := make([]row, 0, len(sorted))
	for _, card := range sorted {
		rows = append(rows, row{
			ImageURL:       card.VendorCard.ImageURL,
			Name:           card.VendorCard.Name.Raw,
			VendorPrice:    fmt.Sprintf("%.2f", card.VendorCard.Price.ConvertTo(cards.SEK).Amount),
			ReferencePrice: fmt.Sprintf("%.2f", referencePriceSEK(card)),
			Diff:           card.PriceDiff,
			Vendor:         card.VendorCard.Vendor,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	data := struct {
		Date string
		Rows []row
	}{
		Date: now.Format("2006-01-02 15:04"),
		Rows: rows,
	}
	if err := page.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("report: render page: %w", err)
	}
	return f.Close()
}

func referencePriceSEK(card cards.ComparedCard) float64 {
	column := card.ReferenceCard.Prices.EUR
	if card.VendorCard.Foil {
		column = card.ReferenceCard.Prices.EURFoil
	}
	if column == nil {
		return 0
	}
	return column.ConvertTo(cards.SEK).Amount
}
