package metrics

import (
	"sort"
	"strings"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const (
	UnassignedID   = "unassigned"
	UnassignedName = "Unassigned"
)

var honorifics = map[string]bool{"Dr.": true, "Dra.": true, "Sr.": true, "Sra.": true}

// Directory is the static user table, keyed by CRM user id.
type Directory struct {
	users map[string]models.UserConfig
	ids   []string
}

func NewDirectory(users map[string]models.UserConfig) *Directory {
	d := &Directory{users: users}
	for id := range users {
		d.ids = append(d.ids, id)
	}
	sort.Strings(d.ids)
	return d
}

func (d *Directory) ByID(id string) (models.UserConfig, bool) {
	if d == nil {
		return models.UserConfig{}, false
	}
	u, ok := d.users[id]
	return u, ok
}

// ByName finds the entry whose configured name equals, or is contained in,
// name. Accents and case are ignored.
func (d *Directory) ByName(name string) (string, models.UserConfig, bool) {
	if d == nil {
		return "", models.UserConfig{}, false
	}
	n := fields.Normalize(name)
	if n == "" {
		return "", models.UserConfig{}, false
	}
	for _, id := range d.ids {
		u := d.users[id]
		cn := fields.Normalize(u.Name)
		if cn == "" {
			continue
		}
		if cn == n || strings.Contains(n, cn) {
			return id, u, true
		}
	}
	return "", models.UserConfig{}, false
}

// Initials renders an avatar label, skipping honorifics.
func Initials(name string) string {
	if name == "" || name == UnassignedName || strings.HasPrefix(name, "Consultor") {
		return "?"
	}
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	var clean []string
	for _, p := range parts {
		if !honorifics[p] {
			clean = append(clean, p)
		}
	}
	switch len(clean) {
	case 0:
		return prefix(parts[0], 2)
	case 1:
		return prefix(clean[0], 2)
	default:
		return prefix(clean[0], 1) + prefix(clean[len(clean)-1], 1)
	}
}

func prefix(s string, n int) string {
	out := make([]rune, 0, n)
	for _, r := range s {
		if len(out) == n {
			break
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return "?"
	}
	return strings.ToUpper(string(out))
}
