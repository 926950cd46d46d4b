package fields

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// minSubstringTerm guards substring matching against short-token collisions.
const minSubstringTerm = 3

type term struct {
	norm  string
	clean string
}

func prepareTerms(terms []string) []term {
	out := make([]term, 0, len(terms))
	for _, t := range terms {
		n := Normalize(t)
		if n == "" {
			continue
		}
		out = append(out, term{norm: n, clean: cleanTerm(n)})
	}
	return out
}

func (t term) matches(key string) bool {
	nk := Normalize(key)
	if nk == t.norm {
		return true
	}
	ck := cleanKey(nk)
	if ck == t.clean {
		return true
	}
	return utf8.RuneCountInString(t.norm) > minSubstringTerm && strings.Contains(ck, t.clean)
}

// Lookup returns the first raw value whose key matches one of terms, or a
// non-existent result. Object-keyed sources are scanned first, in order: the
// record itself, its custom fields, its contact's custom fields. Within a
// source the first matching key wins. Array-shaped custom fields are the
// fallback and are scanned term by term.
func Lookup(c *models.Card, terms ...string) gjson.Result {
	if c == nil {
		return gjson.Result{}
	}
	prepared := prepareTerms(terms)
	if len(prepared) == 0 {
		return gjson.Result{}
	}

	sources := [][]models.Attr{c.Attrs, c.CustomFields}
	if c.Contact != nil {
		sources = append(sources, c.Contact.CustomFields)
	}
	for _, src := range sources {
		for _, a := range src {
			if !present(a.Value) {
				continue
			}
			for _, t := range prepared {
				if t.matches(a.Key) {
					return a.Value
				}
			}
		}
	}

	candidates := c.CustomFieldList
	if c.Contact != nil && len(c.Contact.CustomFieldList) > 0 {
		candidates = append(append([]models.Attr{}, candidates...), c.Contact.CustomFieldList...)
	}
	for _, t := range prepared {
		for _, a := range candidates {
			if present(a.Value) && t.matches(a.Key) {
				return a.Value
			}
		}
	}
	return gjson.Result{}
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}
