package cards

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidSet is returned when a set/edition string is empty after cleaning.
var ErrInvalidSet = errors.New("cards: invalid set name")

// SetName identifies an edition. Equality is on the cleaned form only.
type SetName struct {
	Raw     string `json:"raw"`
	Cleaned string `json:"cleaned"`
}

func NewSetName(raw string) (SetName, error) {
	raw = strings.NewReplacer("'", "", `"`, "").Replace(raw)
	cleaned := cleanSetName(raw)

	if raw == "" || cleaned == "" {
		return SetName{}, ErrInvalidSet
	}
	return SetName{Raw: raw, Cleaned: cleaned}, nil
}

func (s SetName) Equal(other SetName) bool {
	return s.Cleaned == other.Cleaned
}

func cleanSetName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(strings.TrimSpace(b.String()))
}
