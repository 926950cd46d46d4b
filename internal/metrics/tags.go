package metrics

import (
	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// operationalTags are pipeline mechanics, channels and status words. They
// never count as a service type.
var operationalTags = normalizedSet(
	"quente", "frio", "morno", "follow", "reunião", "agendada", "lead",
	"novo", "cliente", "importado", "wts", "arquivado", "perdido",
	"desqualificado", "contato", "agendado", "pendente", "sdr", "closer",
	"indicação", "google", "instagram", "facebook", "ads", "orgânico",
	"conversapp", "sistema", "automático", "clie", "prosp", "ativo",
	"etapa", "funil", "card", "won", "lost", "open",
)

func normalizedSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[fields.Normalize(w)] = struct{}{}
	}
	return out
}

// IsOperationalTag reports whether name is excluded from the service rollup.
func IsOperationalTag(name string) bool {
	_, ok := operationalTags[fields.Normalize(name)]
	return ok
}

// rollupTags counts each distinct service tag once per card. Revenue is only
// attributed when the card is an effective win.
func (r *run) rollupTags(c *models.Card, f facts) {
	seen := map[string]bool{}
	for _, t := range c.Tags {
		n := fields.Normalize(t.Name)
		if n == "" || seen[n] {
			continue
		}
		if _, skip := operationalTags[n]; skip {
			continue
		}
		seen[n] = true

		svc, ok := r.services[t.Name]
		if !ok {
			svc = &models.ServiceRollup{Name: t.Name, Color: r.tagColor(t, n)}
			r.services[t.Name] = svc
			r.serviceOrder = append(r.serviceOrder, t.Name)
		}
		svc.Count++
		if f.win {
			svc.MonetaryValue += f.monetary
		}
	}
}

func (r *run) tagColor(t models.Tag, normalized string) string {
	if t.Color != "" {
		return t.Color
	}
	if ct, ok := r.catalog.Get(normalized); ok && ct.Color != "" {
		return ct.Color
	}
	return DefaultTagColor
}
