package engine

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
)

const (
	// DefaultMaxLength is the maximum number of characters on the display.
	DefaultMaxLength = 15
	// DefaultSeparator is the decimal separator shown to the user.
	DefaultSeparator = ","
	// MaxSafeInteger is the largest integer a float64 represents exactly.
	MaxSafeInteger = 1<<53 - 1
)

// ValidSeparator reports whether sep can be used as the decimal separator.
func ValidSeparator(sep string) bool {
	return sep == "," || sep == "."
}

// FormatValue renders v as display text of at most maxLen characters using
// sep as the decimal separator. When the shortest representation is too
// long, v is re-rendered with maxLen significant digits and then with fewer,
// until it fits. ok is false when v is NaN, infinite, or cannot fit at all.
func FormatValue(v float64, maxLen int, sep string) (text string, ok bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	if maxLen < 1 {
		maxLen = DefaultMaxLength
	}
	if v == 0 {
		// "-0" is never shown
		v = 0
	}

	s := shortest(v)
	for prec := maxLen; len(s) > maxLen && prec > 0; prec-- {
		s = strconv.FormatFloat(v, 'g', prec, 64)
	}
	if len(s) > maxLen {
		return "", false
	}

	return localize(s, sep), true
}

// ParseDisplay converts display text back into a number. Both "," and "."
// are accepted as the decimal separator. Empty text and a lone minus sign
// are zero.
func ParseDisplay(text string) (float64, error) {
	t := strings.TrimSpace(text)
	if t == "" || t == "-" {
		return 0, nil
	}
	t = strings.Replace(t, ",", ".", 1)

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse display text %q", text)
	}
	return v, nil
}

// shortest uses positional notation between 1e-6 and 1e21 and exponent
// notation outside that range.
func shortest(v float64) string {
	if abs := math.Abs(v); v == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func localize(s, sep string) string {
	if sep == "." {
		return s
	}
	return strings.Replace(s, ".", sep, 1)
}

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}
