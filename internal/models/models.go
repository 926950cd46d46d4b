package models

import (
	"time"

	"github.com/tidwall/gjson"
)

// Attr is one raw key/value pair, kept in the order it appeared in the payload.
type Attr struct {
	Key   string
	Value gjson.Result
}

type Tag struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Contact struct {
	Name            string
	CustomFields    []Attr // object-keyed form
	CustomFieldList []Attr // array-of-{name,value} form
	UTM             []Attr
}

// Card is the canonical shape of one CRM opportunity. Every heterogeneous raw
// shape is resolved into it once, at ingestion.
type Card struct {
	ID              string
	Title           string
	Position        float64
	StageID         string
	StageName       string
	ResponsibleID   string
	ResponsibleName string

	CreatedAt         gjson.Result
	UpdatedAt         gjson.Result
	MonetaryAmount    gjson.Result
	AltMonetaryAmount gjson.Result // monetary_amount
	RawValue          gjson.Result // value

	Attrs           []Attr // every top-level key of the record
	CustomFields    []Attr
	CustomFieldList []Attr
	Contact         *Contact
	Tags            []Tag
}

// DisplayTitle falls back to the contact name.
func (c *Card) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Contact != nil && c.Contact.Name != "" {
		return c.Contact.Name
	}
	return "Untitled"
}

type Stage struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Position int         `json:"position"`
	Color    string      `json:"color"`
	Count    int         `json:"count"`
	Total    int         `json:"total"`
	Value    float64     `json:"value"`
	Cards    []StageCard `json:"cards"`
	Records  []*Card     `json:"-"`
}

type StageCard struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Value       float64   `json:"value"`
	Responsible string    `json:"responsibleName"`
	Date        string    `json:"date"`
	RawDate     time.Time `json:"rawDate"`
	Tags        []Tag     `json:"tags"`
	AdName      string    `json:"adName,omitempty"`
	Position    float64   `json:"position"`
}

type Role string

const (
	RoleSDR       Role = "SDR"
	RoleCloser    Role = "Closer"
	RoleSDRCloser Role = "SDR/Closer"
	RoleSeller    Role = "Seller"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSDR, RoleCloser, RoleSDRCloser, RoleSeller:
		return true
	}
	return false
}

// CommissionRate is applied to the entry value of a signed contract.
func (r Role) CommissionRate() float64 {
	switch r {
	case RoleSDR:
		return 0.03
	case RoleCloser:
		return 0.05
	case RoleSDRCloser:
		return 0.08
	default:
		return 0.05
	}
}

// UserConfig is one entry of the static user directory.
type UserConfig struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Role Role   `json:"role" yaml:"role" validate:"required,crm_role"`
}

type Activity struct {
	Leads             int `json:"leads"`
	ScheduledMeetings int `json:"scheduledMeetings"`
	MeetingsHeld      int `json:"meetingsHeld"`
	ProposalsSent     int `json:"proposalsSent"`
	ContractsSigned   int `json:"contractsSigned"`
	ConversionRate    int `json:"conversionRate"`
}

type TeamMember struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Role          Role     `json:"role"`
	Sales         float64  `json:"sales"`
	Target        float64  `json:"target"`
	Commission    float64  `json:"commission"`
	AvatarInitial string   `json:"avatarInitial"`
	Activity      Activity `json:"activity"`
}

type BreakdownItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DailyPoint is one entry of a sparse or dense per-day series, keyed by ISO date.
type DailyPoint struct {
	Date      string          `json:"date"`
	Value     float64         `json:"value"`
	Breakdown []BreakdownItem `json:"breakdown"`
}

type RevenuePoint struct {
	Day       string          `json:"day"`
	FullDate  string          `json:"fullDate"`
	Goal      float64         `json:"meta"`
	Value     float64         `json:"realizado"`
	Breakdown []BreakdownItem `json:"salesBreakdown"`
}

type LeadPoint struct {
	Day      string `json:"day"`
	FullDate string `json:"fullDate"`
	Count    int    `json:"count"`
}

type ServiceRollup struct {
	Name          string  `json:"name"`
	Count         int     `json:"value"`
	MonetaryValue float64 `json:"monetaryValue"`
	Color         string  `json:"color"`
}

type TrafficSource struct {
	Name           string `json:"name"`
	Occurrences    int    `json:"value"`
	Sales          int    `json:"salesCount"`
	ConversionRate int    `json:"conversionRate"`
	Color          string `json:"color"`
}

type Creative struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	URL     string  `json:"url,omitempty"`
	Source  string  `json:"source"`
	Leads   int     `json:"leads"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// Headline holds the KPI totals. TotalRevenue sums member sales; PaidRevenue
// sums the daily revenue series.
type Headline struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	PaidRevenue        float64 `json:"paidRevenue"`
	TotalContracts     int     `json:"totalContracts"`
	TotalCashFlow      float64 `json:"totalCashFlow"`
	TotalMeetings      int     `json:"totalMeetings"`
	TotalCommission    float64 `json:"totalCommission"`
	TotalProposalValue float64 `json:"totalProposalValue"`
}

type Goals struct {
	RevenueTarget   float64 `json:"revenueTarget" yaml:"revenue_target" validate:"gte=0"`
	ContractsTarget int     `json:"contractsTarget" yaml:"contracts_target" validate:"gte=0"`
	CashFlowTarget  float64 `json:"cashFlowTarget" yaml:"cash_flow_target" validate:"gte=0"`
	MemberTarget    float64 `json:"memberTarget" yaml:"member_target" validate:"gte=0"`
}

type Charts struct {
	DailyRevenue []RevenuePoint  `json:"dailyRevenue"`
	DailyLeads   []LeadPoint     `json:"dailyLeads"`
	Services     []ServiceRollup `json:"services"`
	Traffic      []TrafficSource `json:"traffic"`
}

type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Snapshot struct {
	LastUpdated time.Time    `json:"lastUpdated"`
	Filter      DateFilter   `json:"filter"`
	Window      Window       `json:"window"`
	Metrics     Headline     `json:"metrics"`
	Charts      Charts       `json:"charts"`
	Pipeline    []Stage      `json:"pipeline"`
	Team        []TeamMember `json:"team"`
	Creatives   []Creative   `json:"creatives"`
	Goals       Goals        `json:"currentGoals"`
	Records     int          `json:"records"`
}
