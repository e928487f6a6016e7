package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Call is an inbound or outbound phone call handled by the voice agent.
// Duration may be recorded under any of three columns depending on which
// ingestion path wrote the row; nil means unknown, not zero.
type Call struct {
	ID               uuid.UUID `json:"id" db:"id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	DurationSeconds  *float64  `json:"duration_seconds,omitempty" db:"duration_seconds"`
	CallDurationSecs *float64  `json:"call_duration_secs,omitempty" db:"call_duration_secs"`
	Duration         *float64  `json:"duration,omitempty" db:"duration"`
	IsHighIntent     bool      `json:"is_high_intent" db:"is_high_intent"`
}

// LeadStatus represents lead workflow states
type LeadStatus string

const (
	LeadPending LeadStatus = "pending"
	LeadClaimed LeadStatus = "claimed"
	LeadBooked  LeadStatus = "booked"
	LeadClosed  LeadStatus = "closed"
)

// Lead is a carrier lead captured from a call
type Lead struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	Status            LeadStatus    `json:"status" db:"status"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	IsHighIntent      bool          `json:"is_high_intent" db:"is_high_intent"`
	IntentScore       *int          `json:"intent_score,omitempty" db:"intent_score"`
	IntentReasons     IntentReasons `json:"intent_reasons,omitempty" db:"intent_reasons"`
	IntentScoredAt    *time.Time    `json:"intent_scored_at,omitempty" db:"intent_scored_at"`
	CallID            *uuid.UUID    `json:"call_id,omitempty" db:"call_id"`
	BookedAt          *time.Time    `json:"booked_at,omitempty" db:"booked_at"`
	ClosedAt          *time.Time    `json:"closed_at,omitempty" db:"closed_at"`
	CompanyName       string        `json:"company_name" db:"company_name"`
	MCNumber          string        `json:"mc_number" db:"mc_number"`
	DOTNumber         string        `json:"dot_number" db:"dot_number"`
	LoadNumber        string        `json:"load_number" db:"load_number"`
	Origin            string        `json:"origin" db:"origin"`
	Destination       string        `json:"destination" db:"destination"`
	EquipmentType     string        `json:"equipment_type" db:"equipment_type"`
	Transcript        string        `json:"transcript,omitempty" db:"transcript"`
	Summary           string        `json:"summary,omitempty" db:"summary"`
	Notes             string        `json:"notes,omitempty" db:"notes"`
	CallbackRequested bool          `json:"callback_requested" db:"callback_requested"`
}

// IntentReasons is the list of matched intent rules, stored as JSON
type IntentReasons []string

// Value implements driver.Valuer for IntentReasons
func (r IntentReasons) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for IntentReasons
func (r *IntentReasons) Scan(value interface{}) error {
	if value == nil {
		*r = IntentReasons{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into IntentReasons", value)
	}

	return json.Unmarshal(raw, r)
}

// LoadStatus represents load lifecycle states
type LoadStatus string

const (
	LoadOpen   LoadStatus = "open"
	LoadBooked LoadStatus = "booked"
	LoadClosed LoadStatus = "closed"
)

// Load is a freight load offered to carriers
type Load struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	LoadNumber    string     `json:"load_number" db:"load_number"`
	Status        LoadStatus `json:"status" db:"status"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	BookedAt      *time.Time `json:"booked_at,omitempty" db:"booked_at"`
	BookedSource  string     `json:"booked_source,omitempty" db:"booked_source"`
	Origin        string     `json:"origin" db:"origin"`
	Destination   string     `json:"destination" db:"destination"`
	EquipmentType string     `json:"equipment_type,omitempty" db:"equipment_type"`
	Rate          *float64   `json:"rate,omitempty" db:"rate"`
	PickupDate    *time.Time `json:"pickup_date,omitempty" db:"pickup_date"`
	Commodity     string     `json:"commodity,omitempty" db:"commodity"`
	WeightLbs     *float64   `json:"weight_lbs,omitempty" db:"weight_lbs"`
}

// Account is a prospecting account (shipper or carrier) scored for fit
type Account struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	CompanyName     string     `json:"company_name" db:"company_name"`
	Commodities     []string   `json:"commodities" db:"commodities"`
	EquipmentTypes  []string   `json:"equipment_types" db:"equipment_types"`
	Regions         []string   `json:"regions" db:"regions"`
	DOTNumber       string     `json:"dot_number,omitempty" db:"dot_number"`
	MCNumber        string     `json:"mc_number,omitempty" db:"mc_number"`
	OperatingStatus string     `json:"operating_status,omitempty" db:"operating_status"`
	PowerUnits      *int       `json:"power_units,omitempty" db:"power_units"`
	FMCSAEnrichedAt *time.Time `json:"fmcsa_enriched_at,omitempty" db:"fmcsa_enriched_at"`
	Website         string     `json:"website,omitempty" db:"website"`
	ContactEmail    string     `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone    string     `json:"contact_phone,omitempty" db:"contact_phone"`
	FitScore        *int       `json:"fit_score,omitempty" db:"fit_score"`
	FitVersion      string     `json:"fit_version,omitempty" db:"fit_version"`
	FitScoredAt     *time.Time `json:"fit_scored_at,omitempty" db:"fit_scored_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// QueuePriority represents prospecting queue priorities
type QueuePriority string

const (
	PriorityHigh   QueuePriority = "high"
	PriorityMedium QueuePriority = "medium"
	PriorityLow    QueuePriority = "low"
)

// QueueStatus represents prospecting queue entry states
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueInProgress QueueStatus = "in_progress"
	QueueDone       QueueStatus = "done"
)

// QueueEntry places an account on the prospecting priority queue
type QueueEntry struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	AccountID   uuid.UUID     `json:"account_id" db:"account_id"`
	Priority    QueuePriority `json:"priority" db:"priority"`
	Status      QueueStatus   `json:"status" db:"status"`
	FitScore    int           `json:"fit_score" db:"fit_score"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	CompanyName string        `json:"company_name,omitempty" db:"company_name"`
}

// ImportJob records one spreadsheet load import
type ImportJob struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Filename          string     `json:"filename" db:"filename"`
	Status            string     `json:"status" db:"status"`
	TotalRows         int        `json:"total_rows" db:"total_rows"`
	Imported          int        `json:"imported" db:"imported"`
	SkippedDuplicates int        `json:"skipped_duplicates" db:"skipped_duplicates"`
	Invalid           int        `json:"invalid" db:"invalid"`
	StartedBy         *uuid.UUID `json:"started_by,omitempty" db:"started_by"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage      string     `json:"error_message,omitempty" db:"error_message"`
}

// ImportJobStatus represents import job status values
type ImportJobStatus string

const (
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobCompleted ImportJobStatus = "completed"
	ImportJobFailed    ImportJobStatus = "failed"
)
