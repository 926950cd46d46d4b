package fields

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// Money converts a raw monetary value to a number. It never fails: anything
// it cannot read is 0.
func Money(v gjson.Result) float64 {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return 0
		}
		v = arr[0]
	}
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return ParseMoney(v.Str)
	default:
		return 0
	}
}

// ParseMoney reads amounts written with either decimal convention, e.g.
// "R$ 1.234,56", "1234.56" or "1,234.56". Anything left over once the
// number is read, such as the dashes of a date, makes the value 0.
func ParseMoney(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' || unicode.IsLetter(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasDot && !hasComma && strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	case hasComma && !hasDot && strings.Count(cleaned, ",") > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma && !hasDot:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	if !plainNumber.MatchString(cleaned) {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
