// Package pipeline maps cards onto the ordered funnel stages.
package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const (
	DefaultStageID    = "default"
	DefaultStageLabel = "General"
	DefaultStageColor = "#404040"
	newStageLabel     = "New Stage"
	unorderedRank     = 999
)

var palette = []string{"#0ea5e9", "#84cc16", "#eab308", "#fed7aa", "#8b5cf6", "#db2777", "#16a34a", "#ef4444", "#737373"}

// Color cycles the stage palette by index.
func Color(i int) string {
	if i < 0 {
		return DefaultStageColor
	}
	return palette[i%len(palette)]
}

// StepDef is an authoritative stage definition sent by the source.
type StepDef struct {
	ID    string
	Title string
}

type Assembler struct {
	order []string
}

// NewAssembler takes the canonical stage ordering as label fragments.
func NewAssembler(order []string) *Assembler {
	norm := make([]string, 0, len(order))
	for _, o := range order {
		if n := fields.Normalize(o); n != "" {
			norm = append(norm, n)
		}
	}
	return &Assembler{order: norm}
}

type stageSet struct {
	list []*models.Stage
	byID map[string]*models.Stage
}

func (s *stageSet) add(st *models.Stage) *models.Stage {
	if existing, ok := s.byID[st.ID]; ok {
		return existing
	}
	s.list = append(s.list, st)
	s.byID[st.ID] = st
	return st
}

// Assemble seeds stages from steps and assigns every card to exactly one
// stage. Unknown stage names create stages on the fly; cards without any
// stage land in the first stage, or in a synthesized "General" stage.
func (a *Assembler) Assemble(steps []StepDef, cards []*models.Card) []*models.Stage {
	set := &stageSet{byID: make(map[string]*models.Stage)}
	for i, s := range steps {
		id, label := s.ID, s.Title
		if id == "" {
			id = "step-" + strconv.Itoa(i+1)
		}
		if label == "" {
			label = "Stage " + strconv.Itoa(i+1)
		}
		set.add(&models.Stage{ID: id, Label: label, Color: Color(i)})
	}

	for _, c := range cards {
		if c == nil {
			continue
		}
		target := a.resolve(set, c)
		target.Records = append(target.Records, c)
	}

	a.sort(set.list)
	for i, st := range set.list {
		st.Position = i
		st.Total = len(st.Records)
	}
	return set.list
}

func (a *Assembler) resolve(set *stageSet, c *models.Card) *models.Stage {
	if c.StageID != "" {
		if st, ok := set.byID[c.StageID]; ok {
			return st
		}
	}
	name := fields.Normalize(c.StageName)
	if name != "" {
		for _, st := range set.list {
			if fields.Normalize(st.Label) == name {
				return st
			}
		}
		id := c.StageID
		if id == "" {
			id = "auto-" + name
		}
		label := strings.TrimSpace(c.StageName)
		if label == "" {
			label = newStageLabel
		}
		return set.add(&models.Stage{ID: id, Label: label, Color: Color(len(set.list))})
	}
	if len(set.list) == 0 {
		set.add(&models.Stage{ID: DefaultStageID, Label: DefaultStageLabel, Color: DefaultStageColor})
	}
	return set.list[0]
}

// rank is the index of the first canonical fragment that contains, or is
// contained in, the stage label.
func (a *Assembler) rank(label string) int {
	n := fields.Normalize(label)
	if n == "" {
		return unorderedRank
	}
	for i, o := range a.order {
		if strings.Contains(o, n) || strings.Contains(n, o) {
			return i
		}
	}
	return unorderedRank
}

func (a *Assembler) sort(stages []*models.Stage) {
	ranks := make(map[*models.Stage]int, len(stages))
	for _, st := range stages {
		ranks[st] = a.rank(st.Label)
	}
	// estable: empates mantienen el orden de llegada
	sort.SliceStable(stages, func(i, j int) bool {
		return ranks[stages[i]] < ranks[stages[j]]
	})
}
