package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/freight-ops-api/internal/models"
)

func TestIntentEngine_AllRulesCappedAt100(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	result := engine.Score(IntentInput{
		CompanyName:       "Blue Line Transport",
		MCNumber:          "123456",
		LoadNumber:        "88231",
		Origin:            "Dallas, TX",
		Destination:       "Atlanta, GA",
		EquipmentType:     "reefer",
		CallbackRequested: true,
		Transcript: "Can I talk to a dispatcher about the rate? Sounds good, " +
			"I need it ASAP.",
	})

	assert.Equal(t, 145, result.Uncapped)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.IsHighIntent)
	assert.Len(t, result.Reasons, 10)
	for _, detail := range result.Breakdown {
		assert.True(t, detail.Triggered, detail.Description)
	}
}

func TestIntentEngine_HighIntentBoundary(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	// company 15 + load 20 + lane 15 = 50
	atThreshold := engine.Score(IntentInput{
		CompanyName: "Acme Freight",
		LoadNumber:  "4411",
		Origin:      "Reno, NV",
		Destination: "Boise, ID",
	})
	assert.Equal(t, 50, atThreshold.Score)
	assert.True(t, atThreshold.IsHighIntent)

	// company 15 + load 20 + equipment 10 = 45
	below := engine.Score(IntentInput{
		CompanyName:   "Acme Freight",
		LoadNumber:    "4411",
		EquipmentType: "flatbed",
	})
	assert.Equal(t, 45, below.Score)
	assert.False(t, below.IsHighIntent)
}

func TestIntentEngine_TextPatterns(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	result := engine.Score(IntentInput{
		Summary: "Carrier gave MC# 7654321 and asked about load #55821 from Columbus, OH to Newark, NJ.",
	})

	assert.Equal(t, []string{ReasonMCDOT, ReasonLoadNumber, ReasonLaneMentioned}, result.Reasons)
	assert.Equal(t, 55, result.Score)
	assert.Equal(t, "Columbus, OH / Newark, NJ", result.Breakdown[ReasonLaneMentioned].Value)
}

func TestIntentEngine_LaneNeedsTwoCities(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	result := engine.Score(IntentInput{Notes: "Truck is empty in Memphis, TN"})

	assert.False(t, result.Breakdown[ReasonLaneMentioned].Triggered)
	assert.Equal(t, 0, result.Score)
}

func TestIntentEngine_ReasonCountedOnce(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	result := engine.Score(IntentInput{
		Transcript: "this is urgent",
		Summary:    "urgent request",
		Notes:      "needs truck ASAP",
	})

	assert.Equal(t, []string{ReasonUrgency}, result.Reasons)
	assert.Equal(t, 10, result.Score)
	assert.False(t, result.IsHighIntent)
}

func TestIntentEngine_KeywordsCaseInsensitive(t *testing.T) {
	engine := NewIntentEngine(DefaultIntentRules())

	result := engine.Score(IntentInput{Transcript: "CALL ME BACK when you can"})

	assert.True(t, result.Breakdown[ReasonCallbackRequested].Triggered)
	assert.Equal(t, "call me back", result.Breakdown[ReasonCallbackRequested].Value)
}

func TestIntentEngine_EmptyLead(t *testing.T) {
	result := NewIntentEngine(DefaultIntentRules()).Score(IntentInput{})

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Reasons)
	assert.Len(t, result.Breakdown, 10)
}

func TestIntentEngine_CustomRulesInjected(t *testing.T) {
	rules := IntentRules{
		MaxScore:      30,
		HighIntentMin: 20,
		Rules: []IntentRule{
			{Reason: "a", Points: 25, Keywords: []string{"alpha"}},
			{Reason: "b", Points: 25, Keywords: []string{"beta"}},
		},
	}

	result := NewIntentEngine(rules).Score(IntentInput{Notes: "alpha beta"})

	assert.Equal(t, 50, result.Uncapped)
	assert.Equal(t, 30, result.Score)
	assert.True(t, result.IsHighIntent)
	// the production table is untouched
	assert.Equal(t, 100, DefaultIntentRules().MaxScore)
}

func TestIntentInputFromLead(t *testing.T) {
	lead := models.Lead{CompanyName: "Acme", Origin: "A", Notes: "n", CallbackRequested: true}
	in := IntentInputFromLead(lead)

	assert.Equal(t, "Acme", in.CompanyName)
	assert.Equal(t, "A", in.Origin)
	assert.Equal(t, "n", in.Notes)
	assert.True(t, in.CallbackRequested)
}

func intPtr(v int) *int { return &v }

func fullFitAccount() models.Account {
	enriched := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return models.Account{
		CompanyName:     "Valley Produce",
		Commodities:     []string{"Fresh Produce"},
		EquipmentTypes:  []string{"Reefer"},
		Regions:         []string{"CA", "Arizona"},
		FMCSAEnrichedAt: &enriched,
		PowerUnits:      intPtr(12),
		Website:         "www.valleyproduce.com",
	}
}

func TestFitEngine_AllComponentsScore100(t *testing.T) {
	result := NewFitEngine(DefaultFitProfile()).Score(fullFitAccount(), FitSignals{})

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, FitVersion, result.Version)
	require.NotNil(t, result.Priority)
	assert.Equal(t, models.PriorityHigh, *result.Priority)
	assert.Equal(t, "valleyproduce.com", result.Breakdown[FitWebsite].Value)
}

func TestFitEngine_EmptyAccountScoresZero(t *testing.T) {
	result := NewFitEngine(DefaultFitProfile()).Score(models.Account{}, FitSignals{})

	assert.Equal(t, 0, result.Score)
	assert.Nil(t, result.Priority)
	assert.Len(t, result.Breakdown, 6)
}

func TestFitEngine_PartialCredit(t *testing.T) {
	engine := NewFitEngine(DefaultFitProfile())

	account := fullFitAccount()
	account.PowerUnits = intPtr(3)
	account.Website = "https://facebook.com/valleyproduce"
	account.ContactPhone = "+1 555 0100"

	result := engine.Score(account, FitSignals{})

	assert.Equal(t, 5, result.Breakdown[FitScale].Points)
	assert.Equal(t, 5, result.Breakdown[FitWebsite].Points)
	assert.Equal(t, 90, result.Score)
}

func TestFitEngine_DeadWebsiteDowngraded(t *testing.T) {
	live := false
	result := NewFitEngine(DefaultFitProfile()).Score(fullFitAccount(), FitSignals{WebsiteLive: &live})

	assert.Equal(t, 5, result.Breakdown[FitWebsite].Points)
	assert.Equal(t, 95, result.Score)
}

func TestFitEngine_FMCSAFallbackFields(t *testing.T) {
	account := models.Account{DOTNumber: "1234567", OperatingStatus: "AUTHORIZED"}

	result := NewFitEngine(DefaultFitProfile()).Score(account, FitSignals{})

	assert.True(t, result.Breakdown[FitFMCSA].Triggered)
	assert.Equal(t, 20, result.Score)
}

func TestFitEngine_GeographyFullName(t *testing.T) {
	engine := NewFitEngine(DefaultFitProfile())

	assert.True(t, engine.Score(models.Account{Regions: []string{"new york"}}, FitSignals{}).Breakdown[FitGeography].Triggered)
	assert.False(t, engine.Score(models.Account{Regions: []string{"Ontario"}}, FitSignals{}).Breakdown[FitGeography].Triggered)
}

func TestFitEngine_WebsiteHost(t *testing.T) {
	engine := NewFitEngine(DefaultFitProfile())

	testCases := []struct {
		raw  string
		want bool
	}{
		{"acmefreight.com", true},
		{"https://www.acme-logistics.co", true},
		{"localhost", false},
		{"acme.c", false},
		{"acme.wixsite.com", false},
		{"https://linkedin.com/company/acme", false},
		{"", false},
	}

	for _, tc := range testCases {
		_, ok := engine.websiteHost(tc.raw)
		assert.Equal(t, tc.want, ok, tc.raw)
	}
}

func TestPriorityFor(t *testing.T) {
	testCases := []struct {
		score  int
		want   models.QueuePriority
		queued bool
	}{
		{100, models.PriorityHigh, true},
		{80, models.PriorityHigh, true},
		{79, models.PriorityMedium, true},
		{50, models.PriorityMedium, true},
		{49, models.PriorityLow, true},
		{40, models.PriorityLow, true},
		{39, "", false},
		{0, "", false},
	}

	for _, tc := range testCases {
		got, queued := PriorityFor(tc.score)
		assert.Equal(t, tc.queued, queued, "score %d", tc.score)
		assert.Equal(t, tc.want, got, "score %d", tc.score)
	}
}

func TestScoreResult_TriggeredSummary(t *testing.T) {
	result := tally([]check{
		{name: "b", points: 5, triggered: true},
		{name: "a", points: 10, triggered: true},
		{name: "c", points: 7},
	}, 0, time.Now())

	assert.Equal(t, "a+10,b+5", result.TriggeredSummary())
	assert.Equal(t, 15, result.Score)
}
