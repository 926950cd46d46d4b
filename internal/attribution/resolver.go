// Package attribution infers traffic source and marketing creative from the
// UTM-like fields scattered across a card.
package attribution

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const DefaultSource = "Organic"

var creativeKeys = []string{"ad_name", "adname", "campaign", "campanha", "utm_campaign", "criativo"}

type Result struct {
	Name   string
	Source string
	URL    string
}

type candidate struct {
	key   string
	value string
}

// Resolve is best-effort: among competing values the longest one that does
// not say "unknown" wins.
func Resolve(c *models.Card) Result {
	res := Result{Source: DefaultSource}
	if c == nil {
		return res
	}

	var cands []candidate
	cands = collect(cands, c.Attrs, "")
	cands = collect(cands, c.CustomFields, "")
	if c.Contact != nil {
		cands = collect(cands, c.Contact.UTM, "utm_")
	}

	for _, cd := range cands {
		k, v := cd.key, cd.value
		if rejected(v) {
			continue
		}
		if strings.Contains(k, "utm_source") || strings.Contains(k, "origem") || k == "source" {
			if res.Source == DefaultSource || preferable(v, res.Source) {
				res.Source = v
			}
		}
		if containsAny(k, creativeKeys) {
			if res.Name == "" || preferable(v, res.Name) {
				res.Name = v
			}
		}
		if (strings.Contains(k, "url") || strings.Contains(k, "link")) && strings.HasPrefix(v, "http") {
			res.URL = v
		}
	}
	return res
}

// collect keeps truthy scalar values only.
func collect(dst []candidate, src []models.Attr, prefix string) []candidate {
	for _, a := range src {
		var v string
		switch a.Value.Type {
		case gjson.String:
			v = a.Value.Str
		case gjson.Number:
			if a.Value.Num == 0 {
				continue
			}
			v = a.Value.String()
		case gjson.True:
			v = "true"
		default:
			continue
		}
		if v == "" {
			continue
		}
		dst = append(dst, candidate{key: fields.Normalize(prefix + a.Key), value: v})
	}
	return dst
}

func rejected(v string) bool {
	return strings.EqualFold(v, "api") || strings.EqualFold(v, "undefined") || strings.EqualFold(v, "null")
}

func preferable(v, current string) bool {
	return utf8.RuneCountInString(v) > utf8.RuneCountInString(current) &&
		!strings.Contains(strings.ToLower(v), "unknown")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SourceColor picks the chart color for a traffic source.
func SourceColor(source string) string {
	n := fields.Normalize(source)
	switch {
	case strings.Contains(n, "google"):
		return "#4285F4"
	case strings.Contains(n, "insta"):
		return "#E1306C"
	default:
		return "#808080"
	}
}
