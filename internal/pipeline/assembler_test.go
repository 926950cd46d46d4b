package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

var canonical = []string{
	"BASE (Entrada Inicial)",
	"QUALIFICADO (Lead com potencial)",
	"REUNIÃO AGENDADA",
	"PROPOSTA ENVIADA",
	"CONTRATO ASSINADO",
	"PAGAMENTO CONFIRMADO",
}

func labels(stages []*models.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Label
	}
	return out
}

func totalRecords(stages []*models.Stage) int {
	n := 0
	for _, s := range stages {
		n += s.Total
	}
	return n
}

func TestAssembleSeedsAndSortsCanonically(t *testing.T) {
	steps := []StepDef{
		{ID: "s3", Title: "Contrato Assinado"},
		{ID: "s1", Title: "Base"},
		{ID: "s2", Title: "Reunião Agendada"},
	}
	cards := []*models.Card{
		{ID: "a", StageID: "s1"},
		{ID: "b", StageName: "reuniao agendada"},
		{ID: "c", StageID: "s3"},
	}
	stages := NewAssembler(canonical).Assemble(steps, cards)

	assert.Equal(t, []string{"Base", "Reunião Agendada", "Contrato Assinado"}, labels(stages))
	for i, s := range stages {
		assert.Equal(t, i, s.Position)
		assert.Equal(t, 1, s.Total)
	}
	assert.Equal(t, "#0ea5e9", stages[2].Color)
}

func TestAssembleAutoCreatesUnknownStages(t *testing.T) {
	cards := []*models.Card{
		{ID: "a", StageName: "Triagem Jurídica"},
		{ID: "b", StageName: "PROPOSTA ENVIADA"},
		{ID: "c", StageName: "triagem juridica"},
		{ID: "d", StageID: "x9", StageName: "Arquivo"},
	}
	stages := NewAssembler(canonical).Assemble(nil, cards)

	require.Len(t, stages, 3)
	assert.Equal(t, []string{"PROPOSTA ENVIADA", "Triagem Jurídica", "Arquivo"}, labels(stages))
	assert.Equal(t, "auto-triagem juridica", stages[1].ID)
	assert.Equal(t, 2, stages[1].Total)
	assert.Equal(t, "x9", stages[2].ID)
}

func TestAssembleNeverDropsCards(t *testing.T) {
	cards := []*models.Card{{ID: "a"}, {ID: "b", StageID: "ghost"}, nil}
	stages := NewAssembler(canonical).Assemble(nil, cards)

	require.Len(t, stages, 1)
	assert.Equal(t, DefaultStageLabel, stages[0].Label)
	assert.Equal(t, 2, totalRecords(stages))

	steps := []StepDef{{ID: "s1", Title: "Base"}}
	stages = NewAssembler(canonical).Assemble(steps, []*models.Card{{ID: "a"}, {ID: "b", StageID: "nope"}})
	require.Len(t, stages, 1)
	assert.Equal(t, 2, stages[0].Total)
}

func TestAssembleUnorderedStagesKeepEncounterOrder(t *testing.T) {
	cards := []*models.Card{
		{StageName: "Zeta"},
		{StageName: "Alpha"},
		{StageName: "Base"},
		{StageName: "Mid"},
	}
	stages := NewAssembler(canonical).Assemble(nil, cards)
	assert.Equal(t, []string{"Base", "Zeta", "Alpha", "Mid"}, labels(stages))
}

type windowViewer struct{ from time.Time }

func (w windowViewer) View(c *models.Card) (models.StageCard, bool) {
	d, _ := time.Parse("2006-01-02", c.Title)
	if d.Before(w.from) {
		return models.StageCard{}, false
	}
	return models.StageCard{ID: c.ID, Value: 10, RawDate: d, Position: c.Position}, true
}

func TestFinalizeFiltersAndSortsCards(t *testing.T) {
	st := &models.Stage{ID: "s", Records: []*models.Card{
		{ID: "old", Title: "2023-01-01"},
		{ID: "p2", Title: "2024-02-01", Position: 2},
		{ID: "new", Title: "2024-03-01"},
		{ID: "mid", Title: "2024-02-15"},
	}}
	Finalize([]*models.Stage{st}, windowViewer{from: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	require.Len(t, st.Cards, 3)
	assert.Equal(t, []string{"new", "mid", "p2"}, []string{st.Cards[0].ID, st.Cards[1].ID, st.Cards[2].ID})
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 30.0, st.Value)
}

func TestColorCycles(t *testing.T) {
	assert.Equal(t, Color(0), Color(len(palette)))
	assert.Equal(t, DefaultStageColor, Color(-1))
}
