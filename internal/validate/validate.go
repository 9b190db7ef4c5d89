package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'\-.]{1,50}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	maxPrice = decimal.NewFromInt(1_000_000)
)

const MaxQty = 99

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Password requires 8 to 72 bytes (bcrypt's limit) with lower, upper,
// digit and symbol classes present.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a form quantity. Unlike a clamp, anything outside 1..MaxQty
// is rejected so the caller can report it.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > MaxQty {
		return 0, false
	}
	return n, true
}

// Price accepts a non-negative amount with at most two decimals.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || d.GreaterThan(maxPrice) || !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// ID validates a simple resource identifier (item/category/line ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 80 {
		return "", false
	}
	return s, true
}

// Text trims free text and bounds its length. Empty is allowed only when
// required is false.
func Text(s string, max int, required bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", !required
	}
	return s, utf8.RuneCountInString(s) <= max
}
