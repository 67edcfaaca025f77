package cards

import (
	"errors"
	"log"
	"strings"
)

// ErrInvalidCollectorNumber is returned for tokens that are neither a 2-8
// digit number nor a 4-12 character dash-separated identifier.
var ErrInvalidCollectorNumber = errors.New("cards: invalid collector number")

// CollectorNumber is the printed per-card identifier, unique within a set.
// Callers treat an invalid one as absent rather than failing the record.
type CollectorNumber struct {
	Raw     string `json:"raw"`
	Cleaned string `json:"cleaned"`
}

func NewCollectorNumber(s string) (CollectorNumber, error) {
	s = strings.TrimSpace(s)

	if !isOnlyDigits(s) && !isDashSeparated(s) {
		log.Printf("cards: %q is not a valid collector number", s)
		return CollectorNumber{}, ErrInvalidCollectorNumber
	}
	return CollectorNumber{Raw: s, Cleaned: strings.ToLower(s)}, nil
}

func (c CollectorNumber) Equal(other CollectorNumber) bool {
	return c.Cleaned == other.Cleaned
}

func isOnlyDigits(s string) bool {
	if len(s) < 2 || len(s) > 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDashSeparated(s string) bool {
	if len(s) < 4 || len(s) > 12 || !strings.Contains(s, "-") {
		return false
	}
	for _, r := range s {
		if !isAlnum(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
