package cards

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidCard is returned when a raw listing name cannot become a
// comparable card name (empty after cleaning, or a basic land).
var ErrInvalidCard = errors.New("cards: invalid card name")

// CardName is the identity a vendor listing and a reference record are
// matched on. Raw keeps the listing text as scraped, AlmostRaw drops the
// trailing parenthetical annotations vendors add ("(Foil)", "(Skadad)", ...),
// Cleaned is the normalized comparison key.
type CardName struct {
	Raw         string
	AlmostRaw   string
	Cleaned     string
	doubleFaced bool
}

// NewCardName normalizes a raw display string. It fails with ErrInvalidCard
// when nothing is left after cleaning or when the name is a basic land,
// which callers treat as "skip this listing".
func NewCardName(raw string) (CardName, error) {
	almostRaw := stripParenthetical(raw)
	cleaned := cleanName(almostRaw)

	if almostRaw == "" || cleaned == "" {
		return CardName{}, ErrInvalidCard
	}
	if isBasicLand(cleaned) {
		return CardName{}, ErrInvalidCard
	}

	return CardName{
		Raw:         raw,
		AlmostRaw:   almostRaw,
		Cleaned:     cleaned,
		doubleFaced: strings.Contains(almostRaw, "//"),
	}, nil
}

// DoubleFaced reports whether the listing named both faces ("Front // Back").
func (n CardName) DoubleFaced() bool { return n.doubleFaced }

// Equal is true when the cleaned forms match, or when either side is a
// double-faced listing and one cleaned form contains the other. The
// containment rule unifies "Front // Back" listings with single-face ones.
// It can false-positive on very short names; that behavior is kept as is.
func (n CardName) Equal(other CardName) bool {
	if n.Cleaned == other.Cleaned {
		return true
	}
	if n.doubleFaced || other.doubleFaced {
		return strings.Contains(n.Cleaned, other.Cleaned) || strings.Contains(other.Cleaned, n.Cleaned)
	}
	return false
}

func stripParenthetical(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func cleanName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == 'æ':
			b.WriteString("ae")
		case r == ' ' || isAlnum(r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func isBasicLand(cleaned string) bool {
	switch cleaned {
	case "mountain", "island", "plains", "swamp", "forest":
		return true
	}
	return false
}

// MarshalJSON writes the raw display string only; the normalized forms are
// recomputed on load.
func (n CardName) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Raw)
}

func (n *CardName) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name, err := NewCardName(raw)
	if err != nil {
		return err
	}
	*n = name
	return nil
}
