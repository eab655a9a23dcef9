package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/shift"
)

type Period struct {
	From time.Time `json:"startDate"`
	To   time.Time `json:"endDate"`
}

type WorkerInfo struct {
	ID    string `json:"id"`
	Code  string `json:"employeeId"`
	Name  string `json:"name"`
	Phone string `json:"phoneNumber,omitempty"`
}

type ContractorInfo struct {
	ID   string `json:"id"`
	Code string `json:"contractorId"`
	Name string `json:"name"`
}

type SiteInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type WorkerEntry struct {
	Worker  WorkerInfo          `json:"worker"`
	Records []attendance.Record `json:"records"`
	Summary attendance.Summary  `json:"summary"`
}

type ContractorReport struct {
	Contractor          ContractorInfo  `json:"contractor"`
	Site                SiteInfo        `json:"site"`
	Period              Period          `json:"period"`
	Workers             []WorkerEntry   `json:"workers"`
	TotalRecords        int             `json:"totalRecords"`
	TotalEquivalentDays decimal.Decimal `json:"totalEquivalentDays"`
}

// RecordDetail is an attendance record with its contractor and site
// descriptors. Either descriptor is nil when it no longer resolves.
type RecordDetail struct {
	attendance.Record
	Contractor *ContractorInfo `json:"contractor"`
	Site       *SiteInfo       `json:"site"`
}

type WorkerReport struct {
	Worker  WorkerInfo         `json:"worker"`
	Period  Period             `json:"period"`
	Summary attendance.Summary `json:"summary"`
	Records []RecordDetail     `json:"records"`
}

type RangeSummary struct {
	Period              Period             `json:"period"`
	TotalRecords        int                `json:"totalRecords"`
	UniqueWorkers       int                `json:"uniqueWorkers"`
	UniqueContractors   int                `json:"uniqueContractors"`
	ShiftBreakdown      map[shift.Kind]int `json:"shiftBreakdown"`
	TotalEquivalentDays decimal.Decimal    `json:"totalEquivalentDays"`
}
