// Package metrics builds the dashboard snapshot from the assembled pipeline.
// Everything is computed in one pass over the cards; every metric is gated by
// the date most relevant to it rather than by a single record date.
package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/attribution"
	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/pipeline"
	"github.com/AngelCh415/crm-dashboard/internal/series"
)

const (
	DefaultTagColor = "#C59D5F"
	topServices     = 10
	dupTolerance    = 0.1
)

var (
	monetaryTerms = []string{
		"valor", "honorarios", "honor-rios", "preco", "valor-contrato", "valor-do-contrato",
		"valor-causa", "honorarios-contratuais", "valor-total", "montante", "receita",
	}
	meetingTerms  = []string{"data-da-reuni-o", "data da reuniao", "agendamento", "dt reuniao", "data agendamento"}
	contractTerms = []string{"assinatura-do-contra", "assinatura", "data assinatura", "fechamento", "contrato", "data fechamento"}
	paymentTerms  = []string{"data-do-pagamento", "pagamento", "data pagamento"}
	entryTerms    = []string{"-valor-da-entrada", "valor-da-entrada", "valor da entrada", "entrada", "sinal"}
)

type Options struct {
	Now          func() time.Time
	Location     *time.Location
	MissingDates models.MissingDatePolicy
	Directory    *Directory
	Goals        models.Goals
}

// Input is everything one aggregation run reads. Stages are mutated in place
// by the run.
type Input struct {
	Stages        []*models.Stage
	Cards         []*models.Card
	Catalog       *models.TagCatalog
	Filter        models.DateFilter
	Previous      *models.Snapshot
	RoleOverrides map[string]models.Role
	Goals         *models.Goals // replaces Options.Goals when set
}

type Aggregator struct {
	opts Options
}

func NewAggregator(opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MissingDates == "" {
		opts.MissingDates = models.MissingDateAbsent
	}
	return &Aggregator{opts: opts}
}

// Aggregate produces a complete snapshot. Malformed fields degrade to zero or
// no-value; a single bad card never aborts the pass.
func (a *Aggregator) Aggregate(in Input) *models.Snapshot {
	now := a.opts.Now().In(a.opts.Location)
	if in.Filter.Preset == "" {
		in.Filter.Preset = models.PresetMonth
	}
	start, end := FilterBounds(in.Filter, now)
	goals := a.opts.Goals
	if in.Goals != nil {
		goals = *in.Goals
	}

	r := &run{
		opts:      &a.opts,
		goals:     goals,
		now:       now,
		window:    fields.NewWindow(start, end),
		catalog:   in.Catalog,
		roles:     roleOverrides(in.Previous, in.RoleOverrides),
		leads:     map[string]models.DailyPoint{},
		revenue:   map[string]models.DailyPoint{},
		team:      map[string]*models.TeamMember{},
		services:  map[string]*models.ServiceRollup{},
		traffic:   map[string]*models.TrafficSource{},
		creatives: map[string]*models.Creative{},
	}
	for _, c := range in.Cards {
		if c != nil {
			r.process(c)
		}
	}
	pipeline.Finalize(in.Stages, r)

	obsMin, obsMax, seen := r.window.Observed()
	chartStart, chartEnd := series.Bounds(in.Filter.Preset, start, end, obsMin, obsMax, seen, now)
	dailyRevenue := series.Materialize(r.revenue, chartStart, chartEnd)
	for _, p := range dailyRevenue {
		r.head.PaidRevenue += p.Value
	}

	snap := &models.Snapshot{
		LastUpdated: now,
		Filter:      in.Filter,
		Window:      models.Window{Start: fields.DayKey(start), End: fields.DayKey(end)},
		Metrics:     r.head,
		Charts: models.Charts{
			DailyRevenue: series.Revenue(dailyRevenue, goals.RevenueTarget/30),
			DailyLeads:   series.Leads(series.Materialize(r.leads, chartStart, chartEnd)),
			Services:     r.serviceRollup(),
			Traffic:      r.trafficRollup(),
		},
		Pipeline:  make([]models.Stage, 0, len(in.Stages)),
		Team:      r.members(),
		Creatives: r.creativeRollup(),
		Goals:     goals,
		Records:   len(in.Cards),
	}
	for _, st := range in.Stages {
		// raw records point into the response body; the snapshot keeps only cards
		stage := *st
		stage.Records = nil
		snap.Pipeline = append(snap.Pipeline, stage)
	}
	return snap
}

// roleOverrides merges roles kept from the previous snapshot with explicit
// edits; explicit edits win.
func roleOverrides(prev *models.Snapshot, explicit map[string]models.Role) map[string]models.Role {
	out := map[string]models.Role{}
	if prev != nil {
		for _, m := range prev.Team {
			if m.Role.Valid() {
				out[m.ID] = m.Role
			}
		}
	}
	for id, role := range explicit {
		if role.Valid() {
			out[id] = role
		}
	}
	return out
}

type run struct {
	opts    *Options
	goals   models.Goals
	now     time.Time
	window  *fields.Window
	catalog *models.TagCatalog
	roles   map[string]models.Role

	head    models.Headline
	leads   map[string]models.DailyPoint
	revenue map[string]models.DailyPoint

	team      map[string]*models.TeamMember
	teamOrder []string

	services     map[string]*models.ServiceRollup
	serviceOrder []string
	traffic      map[string]*models.TrafficSource
	trafficOrder []string
	creatives    map[string]*models.Creative
	creativeIDs  []string
}

// facts are the per-card values every metric reads.
type facts struct {
	title    string
	monetary float64
	entry    float64

	created  time.Time
	updated  time.Time
	meeting  time.Time
	contract time.Time
	payment  time.Time

	// effectiveContract falls back to the update or creation time for cards
	// sitting in a contract stage without an explicit signature date.
	effectiveContract time.Time

	contractStage bool
	paymentStage  bool
	proposalStage bool
	win           bool
}

func (r *run) extract(c *models.Card) facts {
	loc := r.opts.Location
	f := facts{title: c.DisplayTitle()}

	f.monetary = fields.Money(c.MonetaryAmount)
	if f.monetary == 0 {
		f.monetary = fields.Money(c.AltMonetaryAmount)
	}
	if f.monetary == 0 {
		f.monetary = fields.Money(fields.Lookup(c, monetaryTerms...))
	}
	f.entry = fields.Money(fields.Lookup(c, entryTerms...))

	f.created = r.timestamp(c.CreatedAt)
	f.updated = r.timestamp(c.UpdatedAt)
	f.meeting = fields.Date(fields.Lookup(c, meetingTerms...), loc)
	f.contract = fields.Date(fields.Lookup(c, contractTerms...), loc)
	f.payment = fields.Date(fields.Lookup(c, paymentTerms...), loc)

	stage := fields.Normalize(c.StageName)
	f.contractStage = strings.Contains(stage, "contrato assinado") || strings.Contains(stage, "pagamento confirmado")
	f.paymentStage = strings.Contains(stage, "pagamento confirmado")
	f.proposalStage = strings.Contains(stage, "proposta") || strings.Contains(stage, "negocia")
	f.win = f.contractStage || !f.payment.IsZero()

	f.effectiveContract = f.contract
	if f.effectiveContract.IsZero() && f.contractStage {
		f.effectiveContract = firstDate(f.updated, f.created)
	}
	return f
}

// timestamp reads a record creation or update time under the configured
// missing-date policy.
func (r *run) timestamp(v gjson.Result) time.Time {
	t := fields.Date(v, r.opts.Location)
	if t.IsZero() && r.opts.MissingDates == models.MissingDateNow {
		return r.now
	}
	return t
}

func firstDate(ts ...time.Time) time.Time {
	for _, t := range ts {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func (r *run) process(c *models.Card) {
	f := r.extract(c)
	m := r.member(c)
	w := r.window

	if w.Contains(f.created) {
		bump(r.leads, fields.DayKey(f.created), 1)
		m.Activity.Leads++
	}

	if w.Contains(f.meeting) {
		r.head.TotalMeetings++
		m.Activity.MeetingsHeld++
	}

	if (f.contractStage || !f.contract.IsZero()) && w.Contains(f.effectiveContract) {
		r.head.TotalContracts++
		m.Activity.ContractsSigned++
		r.head.TotalRevenue += f.monetary
		m.Sales += f.monetary
		if f.entry > 0 {
			commission := f.entry * m.Role.CommissionRate()
			m.Commission += commission
			r.head.TotalCommission += commission
		}
	}

	if !f.payment.IsZero() {
		if w.Contains(f.payment) {
			r.head.TotalCashFlow += cashIn(f)
			if f.monetary > 0 {
				r.chartRevenue(fields.DayKey(f.payment), f.title, f.monetary)
			}
		}
	} else if f.paymentStage && w.Contains(firstDate(f.updated, f.created)) {
		// undated payments count toward cash, never toward the chart
		r.head.TotalCashFlow += cashIn(f)
	}

	if (w.Contains(f.created) || w.Contains(f.updated)) && f.proposalStage {
		r.head.TotalProposalValue += f.monetary
		m.Activity.ProposalsSent++
	}

	if w.Contains(f.created) || w.Contains(f.effectiveContract) || w.Contains(f.updated) {
		r.rollupTags(c, f)
		r.rollupAttribution(c, f)
	}
}

func cashIn(f facts) float64 {
	if f.entry > 0 {
		return f.entry
	}
	return f.monetary
}

func bump(m map[string]models.DailyPoint, day string, v float64) {
	p := m[day]
	p.Date = day
	p.Value += v
	m[day] = p
}

func (r *run) chartRevenue(day, title string, value float64) {
	p := r.revenue[day]
	p.Date = day
	p.Value += value
	for _, b := range p.Breakdown {
		if b.Name == title && math.Abs(b.Value-value) < dupTolerance {
			r.revenue[day] = p
			return
		}
	}
	p.Breakdown = append(p.Breakdown, models.BreakdownItem{Name: title, Value: value})
	r.revenue[day] = p
}

// member resolves the card's responsible user: directory id first, then a
// fuzzy name match, then the raw id. Roles kept from earlier runs win over
// the directory.
func (r *run) member(c *models.Card) *models.TeamMember {
	id := c.ResponsibleID
	if id == "" {
		id = UnassignedID
	}
	name := c.ResponsibleName
	if name == "" {
		name = UnassignedName
	}

	cfg, ok := r.opts.Directory.ByID(id)
	if !ok && c.ResponsibleName != "" {
		var matched string
		if matched, cfg, ok = r.opts.Directory.ByName(c.ResponsibleName); ok {
			id = matched
		}
	}
	if ok {
		name = cfg.Name
	}

	if m, found := r.team[id]; found {
		return m
	}
	role := models.RoleSeller
	if ok && cfg.Role.Valid() {
		role = cfg.Role
	}
	if override, found := r.roles[id]; found {
		role = override
	}
	m := &models.TeamMember{
		ID:            id,
		Name:          name,
		Role:          role,
		Target:        r.goals.MemberTarget,
		AvatarInitial: Initials(name),
	}
	r.team[id] = m
	r.teamOrder = append(r.teamOrder, id)
	return m
}

func (r *run) members() []models.TeamMember {
	out := make([]models.TeamMember, 0, len(r.teamOrder))
	for _, id := range r.teamOrder {
		m := r.team[id]
		if m.Activity.Leads > 0 {
			m.Activity.ConversionRate = percent(m.Activity.ContractsSigned, m.Activity.Leads)
		}
		out = append(out, *m)
	}
	return out
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func (r *run) rollupAttribution(c *models.Card, f facts) {
	ad := attribution.Resolve(c)

	if ad.Source != "" {
		key := fields.Normalize(ad.Source)
		src, ok := r.traffic[key]
		if !ok {
			src = &models.TrafficSource{Name: ad.Source, Color: attribution.SourceColor(ad.Source)}
			r.traffic[key] = src
			r.trafficOrder = append(r.trafficOrder, key)
		}
		if r.window.Contains(f.created) {
			src.Occurrences++
		}
		if f.win {
			src.Sales++
		}
		if src.Occurrences > 0 {
			src.ConversionRate = percent(src.Sales, src.Occurrences)
		}
	}

	if ad.Name != "" {
		cr, ok := r.creatives[ad.Name]
		if !ok {
			cr = &models.Creative{ID: ad.Name, Name: ad.Name, URL: ad.URL, Source: ad.Source}
			r.creatives[ad.Name] = cr
			r.creativeIDs = append(r.creativeIDs, ad.Name)
		}
		if r.window.Contains(f.created) {
			cr.Leads++
		}
		if f.win {
			cr.Sales++
			cr.Revenue += f.monetary
		}
	}
}

func (r *run) serviceRollup() []models.ServiceRollup {
	out := make([]models.ServiceRollup, 0, len(r.serviceOrder))
	for _, name := range r.serviceOrder {
		out = append(out, *r.services[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > topServices {
		out = out[:topServices]
	}
	return out
}

func (r *run) trafficRollup() []models.TrafficSource {
	out := make([]models.TrafficSource, 0, len(r.trafficOrder))
	for _, key := range r.trafficOrder {
		out = append(out, *r.traffic[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Occurrences > out[j].Occurrences })
	return out
}

func (r *run) creativeRollup() []models.Creative {
	out := make([]models.Creative, 0, len(r.creativeIDs))
	for _, id := range r.creativeIDs {
		out = append(out, *r.creatives[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}
