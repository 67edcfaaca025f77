package cards

import (
	"errors"
	"testing"
)

func TestNewCollectorNumber(t *testing.T) {
	valid := []string{
		"12",
		"00123456",
		" 241 ",
		"A25-141",
		"PLST-ELD_101",
		"mb1-1694",
	}

	for _, s := range valid {
		cn, err := NewCollectorNumber(s)
		if err != nil {
			t.Errorf("NewCollectorNumber(%q) returned error: %v", s, err)
			continue
		}
		if cn.Cleaned == "" {
			t.Errorf("NewCollectorNumber(%q) produced empty cleaned value", s)
		}
	}
}

func TestNewCollectorNumberInvalid(t *testing.T) {
	invalid := []string{
		"",
		"1",               // too short
		"123456789",       // too long for digits-only
		"abc",             // no dash
		"a-b",             // dash form too short
		"abcdefghijk-lmn", // dash form too long
		"A25/141",         // bad separator
		"123 456",         // whitespace inside
	}

	for _, s := range invalid {
		if _, err := NewCollectorNumber(s); !errors.Is(err, ErrInvalidCollectorNumber) {
			t.Errorf("NewCollectorNumber(%q) = %v, want ErrInvalidCollectorNumber", s, err)
		}
	}
}

func TestCollectorNumberEqual(t *testing.T) {
	a, _ := NewCollectorNumber("A25-141")
	b, _ := NewCollectorNumber("a25-141")
	c, _ := NewCollectorNumber("241")

	if !a.Equal(b) {
		t.Error("Expected case-insensitive equality")
	}
	if a.Equal(c) {
		t.Error("Expected different numbers to not be equal")
	}
}
