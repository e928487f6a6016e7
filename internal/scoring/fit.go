package scoring

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// FitVersion identifies the fit model. Stored scores are only comparable
// within one version.
const FitVersion = "v1"

// Fit components
const (
	FitCommodity = "commodity_match"
	FitEquipment = "equipment_match"
	FitFMCSA     = "fmcsa_enriched"
	FitGeography = "geography"
	FitScale     = "business_scale"
	FitWebsite   = "website_quality"
)

// FitWeights are the points per component. Full weights sum to 100.
type FitWeights struct {
	Commodity      int
	Equipment      int
	FMCSA          int
	Geography      int
	Scale          int
	ScalePartial   int
	Website        int
	WebsitePartial int
}

// FitProfile is an immutable fit model: weights plus the keyword lists
// accounts are matched against
type FitProfile struct {
	Version           string
	Weights           FitWeights
	TargetCommodities []string
	TargetEquipment   []string
	States            map[string]bool
	MinPowerUnits     int
	ExcludedHosts     []string
}

// DefaultFitProfile returns the v1 fit model
func DefaultFitProfile() FitProfile {
	return FitProfile{
		Version: FitVersion,
		Weights: FitWeights{
			Commodity:      30,
			Equipment:      20,
			FMCSA:          20,
			Geography:      10,
			Scale:          10,
			ScalePartial:   5,
			Website:        10,
			WebsitePartial: 5,
		},
		TargetCommodities: []string{
			"produce", "frozen", "food", "beverage", "grocery", "meat", "dairy",
			"building materials", "lumber", "steel", "paper", "packaging",
			"consumer goods", "retail", "auto parts", "machinery", "chemicals", "plastics",
		},
		TargetEquipment: []string{
			"dry van", "van", "reefer", "refrigerated", "flatbed", "step deck", "power only", "conestoga",
		},
		States:        usStates(),
		MinPowerUnits: 5,
		ExcludedHosts: []string{
			"facebook.com", "linkedin.com", "instagram.com", "twitter.com", "x.com",
			"yelp.com", "wixsite.com", "blogspot.com", "sites.google.com", "godaddysites.com",
		},
	}
}

// FitSignals carries optional observations made outside the account row
type FitSignals struct {
	// WebsiteLive is set when the website was fetched; false downgrades the
	// website component to partial credit.
	WebsiteLive *bool
}

// FitResult is the outcome of scoring one account
type FitResult struct {
	*ScoreResult
	Version  string                `json:"version"`
	Priority *models.QueuePriority `json:"priority,omitempty"`
}

// FitEngine scores prospecting accounts
type FitEngine struct {
	profile FitProfile
	now     func() time.Time
}

// NewFitEngine creates a fit engine for the given profile
func NewFitEngine(profile FitProfile) *FitEngine {
	return &FitEngine{profile: profile, now: time.Now}
}

// Version returns the fit model version this engine scores with
func (e *FitEngine) Version() string {
	return e.profile.Version
}

// Score evaluates the six fit components
func (e *FitEngine) Score(account models.Account, signals FitSignals) FitResult {
	p := e.profile
	w := p.Weights

	checks := make([]check, 0, 6)

	c := check{name: FitCommodity, description: "Ships a target commodity", points: w.Commodity}
	c.value, c.triggered = anyContainsAny(account.Commodities, p.TargetCommodities)
	checks = append(checks, c)

	c = check{name: FitEquipment, description: "Uses target equipment", points: w.Equipment}
	c.value, c.triggered = anyContainsAny(account.EquipmentTypes, p.TargetEquipment)
	checks = append(checks, c)

	c = check{name: FitFMCSA, description: "FMCSA enrichment present", points: w.FMCSA}
	switch {
	case account.FMCSAEnrichedAt != nil:
		c.triggered, c.value = true, account.FMCSAEnrichedAt.Format(time.RFC3339)
	case strings.TrimSpace(account.DOTNumber) != "" && strings.TrimSpace(account.OperatingStatus) != "":
		c.triggered, c.value = true, account.DOTNumber+" "+account.OperatingStatus
	}
	checks = append(checks, c)

	c = check{name: FitGeography, description: "Operates in a US state", points: w.Geography}
	for _, region := range account.Regions {
		if p.States[strings.ToLower(strings.TrimSpace(region))] {
			c.triggered, c.value = true, region
			break
		}
	}
	checks = append(checks, c)

	c = check{name: FitScale, description: "Fleet size", points: w.Scale}
	if account.PowerUnits != nil {
		units := *account.PowerUnits
		c.value = fmt.Sprintf("%d power units", units)
		switch {
		case units >= p.MinPowerUnits:
			c.triggered = true
		case units > 0:
			c.triggered, c.points = true, w.ScalePartial
			c.description = "Fleet size (partial)"
		}
	}
	checks = append(checks, c)

	c = check{name: FitWebsite, description: "Has a business website", points: w.Website}
	switch host, ok := e.websiteHost(account.Website); {
	case ok && (signals.WebsiteLive == nil || *signals.WebsiteLive):
		c.triggered, c.value = true, host
	case ok || account.ContactEmail != "" || account.ContactPhone != "":
		c.triggered, c.points = true, w.WebsitePartial
		c.description = "Reachable contact (partial)"
		c.value = firstNonEmpty(host, account.ContactEmail, account.ContactPhone)
	}
	checks = append(checks, c)

	result := tally(checks, 100, e.now())
	fit := FitResult{ScoreResult: result, Version: p.Version}
	if priority, ok := PriorityFor(result.Score); ok {
		fit.Priority = &priority
	}
	return fit
}

// websiteHost returns the normalized host when raw looks like a real
// business site: parseable, dotted with a TLD, and not a social or free
// hosting page
func (e *FitEngine) websiteHost(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	dot := strings.LastIndex(host, ".")
	if dot <= 0 || len(host)-dot-1 < 2 {
		return "", false
	}
	for _, excluded := range e.profile.ExcludedHosts {
		if host == excluded || strings.HasSuffix(host, "."+excluded) {
			return "", false
		}
	}
	return host, true
}

// PriorityFor maps a fit score to a queue priority. Scores under 40 are not
// queued.
func PriorityFor(score int) (models.QueuePriority, bool) {
	switch {
	case score >= 80:
		return models.PriorityHigh, true
	case score >= 50:
		return models.PriorityMedium, true
	case score >= 40:
		return models.PriorityLow, true
	default:
		return "", false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func usStates() map[string]bool {
	states := map[string]string{
		"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
		"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
		"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
		"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
		"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
		"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
		"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
		"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
		"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
		"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
		"DC": "District of Columbia",
	}
	set := make(map[string]bool, len(states)*2)
	for code, name := range states {
		set[strings.ToLower(code)] = true
		set[strings.ToLower(name)] = true
	}
	return set
}
