package scoring

import (
	"regexp"
	"strings"
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// Intent reasons, in evaluation order
const (
	ReasonMCDOT              = "mc_dot_number"
	ReasonCompanyName        = "company_name"
	ReasonLoadNumber         = "load_number"
	ReasonLaneMentioned      = "lane_mentioned"
	ReasonCallbackRequested  = "callback_requested"
	ReasonAskedForHuman      = "asked_for_human"
	ReasonRateDiscussed      = "rate_discussed"
	ReasonRateAccepted       = "rate_accepted"
	ReasonEquipmentSpecified = "equipment_specified"
	ReasonUrgency            = "urgency"
)

// IntentInput is the lead data the intent rules look at
type IntentInput struct {
	CompanyName       string `json:"company_name"`
	MCNumber          string `json:"mc_number"`
	DOTNumber         string `json:"dot_number"`
	LoadNumber        string `json:"load_number"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	EquipmentType     string `json:"equipment_type"`
	CallbackRequested bool   `json:"callback_requested"`
	Transcript        string `json:"transcript"`
	Summary           string `json:"summary"`
	Notes             string `json:"notes"`
}

// IntentInputFromLead maps a stored lead onto the rule input
func IntentInputFromLead(lead models.Lead) IntentInput {
	return IntentInput{
		CompanyName:       lead.CompanyName,
		MCNumber:          lead.MCNumber,
		DOTNumber:         lead.DOTNumber,
		LoadNumber:        lead.LoadNumber,
		Origin:            lead.Origin,
		Destination:       lead.Destination,
		EquipmentType:     lead.EquipmentType,
		CallbackRequested: lead.CallbackRequested,
		Transcript:        lead.Transcript,
		Summary:           lead.Summary,
		Notes:             lead.Notes,
	}
}

func (in IntentInput) texts() []string {
	return []string{in.Transcript, in.Summary, in.Notes}
}

// IntentRule awards Points when its field check passes or any text source
// matches its keywords or patterns. MinMatches is the number of distinct
// pattern matches needed across all text (default 1).
type IntentRule struct {
	Reason      string
	Points      int
	Description string
	Field       func(IntentInput) (string, bool)
	Keywords    []string
	Patterns    []*regexp.Regexp
	MinMatches  int
}

// IntentRules is an immutable intent rule table
type IntentRules struct {
	Rules         []IntentRule
	MaxScore      int
	HighIntentMin int
}

var (
	mcDotPattern      = regexp.MustCompile(`(?i)\b(?:mc|dot)\s*(?:#|:|no\.?|number)?\s*:?\s*\d{5,8}\b`)
	loadNumberPattern = regexp.MustCompile(`(?i)\bload\s*(?:#|/|no\.?|num(?:ber)?)?\s*:?\s*\d{4,}\b`)
	cityStatePattern  = regexp.MustCompile(`\b[A-Z][a-zA-Z.]+(?: [A-Z][a-zA-Z.]+)*, [A-Z]{2}\b`)
)

func present(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

// DefaultIntentRules returns the production intent rule table. The
// uncapped total is 145; scores are capped at 100 and 50 or more is high
// intent.
func DefaultIntentRules() IntentRules {
	return IntentRules{
		MaxScore:      100,
		HighIntentMin: 50,
		Rules: []IntentRule{
			{
				Reason:      ReasonMCDOT,
				Points:      20,
				Description: "MC or DOT number provided",
				Field: func(in IntentInput) (string, bool) {
					if v, ok := present(in.MCNumber); ok {
						return "MC " + v, true
					}
					if v, ok := present(in.DOTNumber); ok {
						return "DOT " + v, true
					}
					return "", false
				},
				Patterns: []*regexp.Regexp{mcDotPattern},
			},
			{
				Reason:      ReasonCompanyName,
				Points:      15,
				Description: "Company name provided",
				Field:       func(in IntentInput) (string, bool) { return present(in.CompanyName) },
			},
			{
				Reason:      ReasonLoadNumber,
				Points:      20,
				Description: "Specific load referenced",
				Field:       func(in IntentInput) (string, bool) { return present(in.LoadNumber) },
				Patterns:    []*regexp.Regexp{loadNumberPattern},
			},
			{
				Reason:      ReasonLaneMentioned,
				Points:      15,
				Description: "Origin and destination mentioned",
				Field: func(in IntentInput) (string, bool) {
					o, okO := present(in.Origin)
					d, okD := present(in.Destination)
					if okO && okD {
						return o + " -> " + d, true
					}
					return "", false
				},
				Patterns:   []*regexp.Regexp{cityStatePattern},
				MinMatches: 2,
			},
			{
				Reason:      ReasonCallbackRequested,
				Points:      15,
				Description: "Carrier asked for a callback",
				Field: func(in IntentInput) (string, bool) {
					return "callback_requested", in.CallbackRequested
				},
				Keywords: []string{"call me back", "call back", "callback", "give me a call", "call me at", "reach me at"},
			},
			{
				Reason:      ReasonAskedForHuman,
				Points:      10,
				Description: "Asked to speak with a person",
				Keywords: []string{
					"speak to a human", "talk to a human", "real person", "speak to someone",
					"talk to someone", "live agent", "representative", "dispatcher", "talk to a person",
				},
			},
			{
				Reason:      ReasonRateDiscussed,
				Points:      10,
				Description: "Rate discussed",
				Keywords:    []string{"rate", "per mile", "rpm", "how much", "pay", "all in", "$"},
			},
			{
				Reason:      ReasonRateAccepted,
				Points:      20,
				Description: "Rate accepted",
				Keywords: []string{
					"sounds good", "i'll take it", "we'll take it", "book it", "works for me",
					"accept", "agreed", "deal",
				},
			},
			{
				Reason:      ReasonEquipmentSpecified,
				Points:      10,
				Description: "Equipment type specified",
				Field:       func(in IntentInput) (string, bool) { return present(in.EquipmentType) },
				Keywords: []string{
					"dry van", "reefer", "flatbed", "step deck", "stepdeck", "power only",
					"conestoga", "hotshot", "tanker", "lowboy", "box truck",
				},
			},
			{
				Reason:      ReasonUrgency,
				Points:      10,
				Description: "Urgency expressed",
				Keywords:    []string{"asap", "urgent", "right now", "immediately", "today", "tonight", "as soon as possible"},
			},
		},
	}
}

// IntentResult is the outcome of scoring one lead
type IntentResult struct {
	*ScoreResult
	IsHighIntent bool `json:"is_high_intent"`
}

// IntentEngine scores leads against an intent rule table
type IntentEngine struct {
	rules IntentRules
	now   func() time.Time
}

// NewIntentEngine creates an intent engine for the given rules
func NewIntentEngine(rules IntentRules) *IntentEngine {
	return &IntentEngine{rules: rules, now: time.Now}
}

// Score evaluates every rule once. A reason counts at most once no matter
// how many text sources match it.
func (e *IntentEngine) Score(in IntentInput) IntentResult {
	checks := make([]check, 0, len(e.rules.Rules))
	for _, rule := range e.rules.Rules {
		value, triggered := evaluateIntentRule(rule, in)
		checks = append(checks, check{
			name:        rule.Reason,
			description: rule.Description,
			points:      rule.Points,
			triggered:   triggered,
			value:       value,
		})
	}

	result := tally(checks, e.rules.MaxScore, e.now())
	return IntentResult{
		ScoreResult:  result,
		IsHighIntent: result.Score >= e.rules.HighIntentMin,
	}
}

func evaluateIntentRule(rule IntentRule, in IntentInput) (string, bool) {
	if rule.Field != nil {
		if v, ok := rule.Field(in); ok {
			return v, true
		}
	}

	texts := in.texts()
	if len(rule.Keywords) > 0 {
		for _, text := range texts {
			if kw, ok := containsAny(text, rule.Keywords); ok {
				return kw, true
			}
		}
	}

	if len(rule.Patterns) > 0 {
		need := rule.MinMatches
		if need <= 0 {
			need = 1
		}
		seen := make(map[string]bool)
		var matches []string
		for _, text := range texts {
			for _, p := range rule.Patterns {
				for _, m := range p.FindAllString(text, -1) {
					if !seen[m] {
						seen[m] = true
						matches = append(matches, m)
					}
				}
			}
		}
		if len(matches) >= need {
			return strings.Join(matches[:need], " / "), true
		}
	}

	return "", false
}
