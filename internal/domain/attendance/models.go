package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/shift"
)

type Record struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"workerId"`
	ContractorID string     `json:"contractorId"`
	SiteID       string     `json:"siteId"`
	Date         time.Time  `json:"date"`
	ShiftKind    shift.Kind `json:"shiftKind"`
	Remarks      string     `json:"remarks,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r Record) Key() Key {
	return Key{WorkerID: r.WorkerID, ContractorID: r.ContractorID, SiteID: r.SiteID, Date: NormalizeDate(r.Date)}
}

type NewEntry struct {
	WorkerID     string
	ContractorID string
	SiteID       string
	Date         time.Time
	ShiftKind    shift.Kind
	Remarks      string
}

func (e NewEntry) Key() Key {
	return Key{WorkerID: e.WorkerID, ContractorID: e.ContractorID, SiteID: e.SiteID, Date: NormalizeDate(e.Date)}
}

// Key is the tuple that identifies at most one attendance entry.
type Key struct {
	WorkerID     string    `json:"workerId"`
	ContractorID string    `json:"contractorId"`
	SiteID       string    `json:"siteId"`
	Date         time.Time `json:"date"`
}

// Change is a partial update; nil fields are left untouched.
type Change struct {
	ShiftKind *shift.Kind
	Remarks   *string
}

type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Normalized() DateRange {
	out := DateRange{}
	if !r.From.IsZero() {
		out.From = NormalizeDate(r.From)
	}
	if !r.To.IsZero() {
		out.To = NormalizeDate(r.To)
	}
	return out
}

// Filter narrows a record listing. Zero-valued fields are not applied and
// both ends of the date range are inclusive. A zero Limit means no limit.
type Filter struct {
	WorkerID     string
	ContractorID string
	SiteID       string
	Range        DateRange
	Limit        int
}

// Summary is derived from records and never stored.
type Summary struct {
	TotalRecords        int                `json:"totalRecords"`
	Counts              map[shift.Kind]int `json:"counts"`
	TotalEquivalentDays decimal.Decimal    `json:"totalEquivalentDays"`
}

type WorkerGroup struct {
	WorkerID string   `json:"workerId"`
	Records  []Record `json:"records"`
	Summary  Summary  `json:"summary"`
}

// NormalizeDate drops the time of day, keeping the calendar date as seen in
// t's own location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
