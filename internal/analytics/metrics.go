// Package analytics computes the canonical call, lead and load funnel
// metrics shared by every dashboard surface. Everything here is pure:
// callers fetch the records, these functions only count.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

// Fixed metric definitions, in seconds / points.
const (
	EngagedMinSeconds     = 20
	QuickHangupMaxSeconds = 10
	HighIntentMinSeconds  = 45
	HighIntentMinScore    = 70
)

// ReconcileMode controls what Compute does when leads exist but no call
// qualifies as engaged.
type ReconcileMode string

const (
	// ReconcileClamp raises engaged calls to min(leads, calls) and warns.
	ReconcileClamp ReconcileMode = "clamp"
	// ReconcileReport only warns; the engaged count is reported as computed.
	ReconcileReport ReconcileMode = "report"
)

// ParseReconcileMode maps a config string to a mode, defaulting to clamp
func ParseReconcileMode(s string) ReconcileMode {
	if ReconcileMode(s) == ReconcileReport {
		return ReconcileReport
	}
	return ReconcileClamp
}

// Options tunes Compute
type Options struct {
	Reconcile ReconcileMode
}

// Metrics is the flat metrics record for one period
type Metrics struct {
	TotalCalls           int     `json:"total_calls"`
	EngagedCalls         int     `json:"engaged_calls"`
	QuickHangups         int     `json:"quick_hangups"`
	HighIntentCalls      int     `json:"high_intent_calls"`
	UnknownDurationCalls int     `json:"unknown_duration_calls"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`

	TotalLeads      int `json:"total_leads"`
	PendingLeads    int `json:"pending_leads"`
	ClaimedLeads    int `json:"claimed_leads"`
	BookedLeads     int `json:"booked_leads"`
	ClosedLeads     int `json:"closed_leads"`
	HighIntentLeads int `json:"high_intent_leads"`

	TotalLoads    int `json:"total_loads"`
	OpenLoads     int `json:"open_loads"`
	BookedLoads   int `json:"booked_loads"`
	ClosedLoads   int `json:"closed_loads"`
	ActiveLoads   int `json:"active_loads"`
	AIBookedLoads int `json:"ai_booked_loads"`

	CallToLeadRate   float64 `json:"call_to_lead_rate"`
	CallToBookedRate float64 `json:"call_to_booked_rate"`
	LeadToBookedRate float64 `json:"lead_to_booked_rate"`
	EngagementRate   float64 `json:"engagement_rate"`

	Warnings []string `json:"warnings"`
}

// CallDuration returns the call duration in seconds and whether it is known.
// The first present of duration_seconds, call_duration_secs, duration wins.
func CallDuration(call models.Call) (float64, bool) {
	for _, d := range []*float64{call.DurationSeconds, call.CallDurationSecs, call.Duration} {
		if d != nil {
			return *d, true
		}
	}
	return 0, false
}

// IsQuickHangup reports a call with a known duration under 10 seconds.
// Unknown duration is never a quick hangup.
func IsQuickHangup(call models.Call) bool {
	d, known := CallDuration(call)
	return known && d < QuickHangupMaxSeconds
}

// IsEngagedCall reports a call lasting at least 20 seconds, flagged high
// intent, or referenced by a lead as its originating call.
func IsEngagedCall(call models.Call, leadCalls map[uuid.UUID]bool) bool {
	if d, known := CallDuration(call); known && d >= EngagedMinSeconds {
		return true
	}
	if call.IsHighIntent {
		return true
	}
	return leadCalls[call.ID]
}

// IsHighIntentCall reports a flagged call or one lasting at least 45 seconds
func IsHighIntentCall(call models.Call) bool {
	if call.IsHighIntent {
		return true
	}
	d, known := CallDuration(call)
	return known && d >= HighIntentMinSeconds
}

// IsHighIntentLead applies the lead side of the high intent definition.
// call is the lead's originating call and may be nil.
func IsHighIntentLead(lead models.Lead, call *models.Call) bool {
	if lead.IsHighIntent {
		return true
	}
	if lead.IntentScore != nil && *lead.IntentScore >= HighIntentMinScore {
		return true
	}
	return call != nil && IsHighIntentCall(*call)
}

// IsBookedLead reports a lead in booked status or carrying a booked timestamp
func IsBookedLead(lead models.Lead) bool {
	return lead.Status == models.LeadBooked || lead.BookedAt != nil
}

// Rate returns num/den as a percentage rounded to one decimal, 0 when den
// is 0. The result is bounded to [0, 100]: more leads than calls in a
// period still reports a 100% call to lead rate.
func Rate(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	if num >= den {
		return 100
	}
	return round1(float64(num) / float64(den) * 100)
}

// LeadCallIndex returns the set of call ids that produced a lead
func LeadCallIndex(leads []models.Lead) map[uuid.UUID]bool {
	index := make(map[uuid.UUID]bool, len(leads))
	for _, lead := range leads {
		if lead.CallID != nil {
			index[*lead.CallID] = true
		}
	}
	return index
}

// Compute derives the metrics record for the given records
func Compute(calls []models.Call, leads []models.Lead, loads []models.Load, opts Options) Metrics {
	m := Metrics{Warnings: []string{}}

	leadCalls := LeadCallIndex(leads)
	callsByID := make(map[uuid.UUID]*models.Call, len(calls))

	knownDurations := 0
	for i := range calls {
		call := calls[i]
		callsByID[call.ID] = &calls[i]
		m.TotalCalls++

		if d, known := CallDuration(call); known {
			m.TotalDurationSeconds += d
			knownDurations++
		} else {
			m.UnknownDurationCalls++
		}
		if IsEngagedCall(call, leadCalls) {
			m.EngagedCalls++
		}
		if IsQuickHangup(call) {
			m.QuickHangups++
		}
		if IsHighIntentCall(call) {
			m.HighIntentCalls++
		}
	}
	m.TotalDurationSeconds = round1(m.TotalDurationSeconds)
	if knownDurations > 0 {
		m.AvgDurationSeconds = round1(m.TotalDurationSeconds / float64(knownDurations))
	}

	for _, lead := range leads {
		m.TotalLeads++
		switch lead.Status {
		case models.LeadPending:
			m.PendingLeads++
		case models.LeadClaimed:
			m.ClaimedLeads++
		case models.LeadClosed:
			m.ClosedLeads++
		}
		if IsBookedLead(lead) {
			m.BookedLeads++
		}

		var call *models.Call
		if lead.CallID != nil {
			call = callsByID[*lead.CallID]
		}
		if IsHighIntentLead(lead, call) {
			m.HighIntentLeads++
		}
	}

	for _, load := range loads {
		m.TotalLoads++
		switch load.Status {
		case models.LoadOpen:
			m.OpenLoads++
		case models.LoadBooked:
			m.BookedLoads++
			if load.BookedSource == "ai" || load.BookedSource == "voice_agent" {
				m.AIBookedLoads++
			}
		case models.LoadClosed:
			m.ClosedLoads++
		}
		if load.IsActive {
			m.ActiveLoads++
		}
	}

	if m.TotalLeads > 0 && m.EngagedCalls == 0 {
		if opts.Reconcile == ReconcileReport {
			m.Warnings = append(m.Warnings, fmt.Sprintf(
				"engaged_calls is 0 while %d leads exist; call and lead data are inconsistent", m.TotalLeads))
		} else {
			clamped := min(m.TotalLeads, m.TotalCalls)
			m.Warnings = append(m.Warnings, fmt.Sprintf(
				"engaged_calls was 0 while %d leads exist; raised to %d", m.TotalLeads, clamped))
			m.EngagedCalls = clamped
		}
	}

	m.CallToLeadRate = Rate(m.TotalLeads, m.TotalCalls)
	m.CallToBookedRate = Rate(m.BookedLeads, m.TotalCalls)
	m.LeadToBookedRate = Rate(m.BookedLeads, m.TotalLeads)
	m.EngagementRate = Rate(m.EngagedCalls, m.TotalCalls)

	return m
}

// Period is a half-open [From, To) window. A zero bound is unbounded.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

// FilterPeriod restricts each record set to rows created inside the period
func FilterPeriod(p Period, calls []models.Call, leads []models.Lead, loads []models.Load) ([]models.Call, []models.Lead, []models.Load) {
	var fc []models.Call
	for _, c := range calls {
		if p.Contains(c.CreatedAt) {
			fc = append(fc, c)
		}
	}
	var fl []models.Lead
	for _, l := range leads {
		if p.Contains(l.CreatedAt) {
			fl = append(fl, l)
		}
	}
	var fo []models.Load
	for _, l := range loads {
		if p.Contains(l.CreatedAt) {
			fo = append(fo, l)
		}
	}
	return fc, fl, fo
}

// DailyMetrics is the metrics record for one calendar day
type DailyMetrics struct {
	Date string `json:"date"`
	Metrics
}

// Daily buckets records by calendar day in loc and computes each bucket
// independently. Days without any record are omitted.
func Daily(calls []models.Call, leads []models.Lead, loads []models.Load, loc *time.Location, opts Options) []DailyMetrics {
	if loc == nil {
		loc = time.UTC
	}
	type bucket struct {
		calls []models.Call
		leads []models.Lead
		loads []models.Load
	}
	buckets := make(map[string]*bucket)
	get := func(t time.Time) *bucket {
		key := t.In(loc).Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		return b
	}

	for _, c := range calls {
		b := get(c.CreatedAt)
		b.calls = append(b.calls, c)
	}
	for _, l := range leads {
		b := get(l.CreatedAt)
		b.leads = append(b.leads, l)
	}
	for _, l := range loads {
		b := get(l.CreatedAt)
		b.loads = append(b.loads, l)
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]DailyMetrics, 0, len(days))
	for _, day := range days {
		b := buckets[day]
		out = append(out, DailyMetrics{Date: day, Metrics: Compute(b.calls, b.leads, b.loads, opts)})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
