package pipeline

import (
	"sort"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// Viewer renders an assigned card for display, or reports that the card is
// outside the active date window.
type Viewer interface {
	View(c *models.Card) (models.StageCard, bool)
}

// Finalize fills each stage's visible cards, count and value. Total keeps the
// number of assigned cards regardless of the window.
func Finalize(stages []*models.Stage, v Viewer) {
	for _, st := range stages {
		cards := make([]models.StageCard, 0, len(st.Records))
		var value float64
		for _, c := range st.Records {
			sc, ok := v.View(c)
			if !ok {
				continue
			}
			value += sc.Value
			cards = append(cards, sc)
		}
		SortCards(cards)
		st.Cards = cards
		st.Count = len(cards)
		st.Value = value
		st.Total = len(st.Records)
	}
}

// SortCards orders by board position, then newest first.
func SortCards(cards []models.StageCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Position != cards[j].Position {
			return cards[i].Position < cards[j].Position
		}
		return cards[i].RawDate.After(cards[j].RawDate)
	})
}
