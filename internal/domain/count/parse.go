package count

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// ParseSubmission reads the leading decimal digits of a message. Any Unicode
// decimal digit counts, so "٤٢" reads as 42 just like "42".
// Text after the digits is ignored, so "5!" reads as 5. A message that
// does not start with a digit is not a submission. Digit runs too large
// for int64 saturate to math.MaxInt64, which can never be the next number.
func ParseSubmission(text string) (int64, bool) {
	var (
		value  int64
		digits int
	)
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		d, ok := digitValue(r)
		if !ok {
			break
		}
		text = text[size:]
		digits++
		if value > (math.MaxInt64-d)/10 {
			value = math.MaxInt64
			continue
		}
		value = value*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	return value, true
}

// digitValue returns the value of a decimal digit from any script. Decimal
// digits are encoded in runs of ten starting at zero, and unicode.Nd lists
// whole runs, so the offset inside a range is the value.
func digitValue(r rune) (int64, bool) {
	if r >= '0' && r <= '9' {
		return int64(r - '0'), true
	}
	if r < utf8.RuneSelf || !unicode.IsDigit(r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int64((r-rune(rg.Lo))/rune(rg.Stride)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int64((r-rune(rg.Lo))/rune(rg.Stride)) % 10, true
		}
	}
	return 0, false
}
