package metrics

import (
	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/attribution"
	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const (
	cardTagColor = "#333"
	cardTagLimit = 3
	cardDate     = "02/01/2006"
)

var (
	cardContractTerms = []string{"assinatura-do-contra", "assinatura"}
	cardMeetingTerms  = []string{"data-da-reuni-o", "reuniao"}
	cardValueTerms    = []string{"valor", "honorarios", "honor-rios", "preco", "contrato"}
)

// View renders c for the pipeline board. A card is visible when any of its
// creation, update, signature or meeting dates is inside the window.
func (r *run) View(c *models.Card) (models.StageCard, bool) {
	loc := r.opts.Location
	created := r.timestamp(c.CreatedAt)
	updated := r.timestamp(c.UpdatedAt)
	contract := fields.Date(fields.Lookup(c, cardContractTerms...), loc)
	meeting := fields.Date(fields.Lookup(c, cardMeetingTerms...), loc)

	w := r.window
	if !(w.Contains(created) || w.Contains(updated) || w.Contains(contract) || w.Contains(meeting)) {
		return models.StageCard{}, false
	}

	raw := c.MonetaryAmount
	if !truthy(raw) {
		raw = c.RawValue
	}
	value := fields.Money(raw)
	if value == 0 {
		value = fields.Money(fields.Lookup(c, cardValueTerms...))
	}

	responsible := c.ResponsibleName
	if responsible == "" {
		responsible = UnassignedName
	}

	shown := firstDate(contract, created)
	if shown.IsZero() {
		shown = r.now
	}

	n := len(c.Tags)
	if n > cardTagLimit {
		n = cardTagLimit
	}
	tags := make([]models.Tag, 0, n)
	for _, t := range c.Tags[:n] {
		if t.Color == "" {
			t.Color = cardTagColor
		}
		tags = append(tags, t)
	}

	return models.StageCard{
		ID:          c.ID,
		Title:       c.DisplayTitle(),
		Value:       value,
		Responsible: responsible,
		Date:        shown.Format(cardDate),
		RawDate:     shown,
		Tags:        tags,
		AdName:      attribution.Resolve(c).Name,
		Position:    c.Position,
	}, true
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		return true
	default:
		return v.Exists()
	}
}
