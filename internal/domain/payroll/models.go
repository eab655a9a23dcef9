package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/shift"
)

// Rates is the per-unit pay for each shift kind. A nil slot means the kind
// is not rated.
type Rates struct {
	Half    *decimal.Decimal `json:"half"`
	Full    *decimal.Decimal `json:"full"`
	OneHalf *decimal.Decimal `json:"onehalf"`
	Double  *decimal.Decimal `json:"double"`
}

func (r Rates) slot(k shift.Kind) (*decimal.Decimal, error) {
	switch k {
	case shift.Half:
		return r.Half, nil
	case shift.Full:
		return r.Full, nil
	case shift.OneHalf:
		return r.OneHalf, nil
	case shift.Double:
		return r.Double, nil
	}
	return nil, &shift.UnknownKindError{Kind: k}
}

// For returns the rate of kind k, failing when k is unknown or unrated.
func (r Rates) For(k shift.Kind) (decimal.Decimal, error) {
	rate, err := r.slot(k)
	if err != nil {
		return decimal.Zero, err
	}
	if rate == nil {
		return decimal.Zero, &MissingRateError{Kind: k}
	}
	return *rate, nil
}

type Deductions struct {
	PF      decimal.Decimal `json:"pf"`
	ESI     decimal.Decimal `json:"esi"`
	Advance decimal.Decimal `json:"advance"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.PF.Add(d.ESI).Add(d.Advance)
}

// Named lists the deductions in statement order.
func (d Deductions) Named() []Deduction {
	return []Deduction{
		{Name: DeductionPF, Amount: d.PF},
		{Name: DeductionESI, Amount: d.ESI},
		{Name: DeductionAdvance, Amount: d.Advance},
	}
}

type Deduction struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type Settings struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Rates      Rates      `json:"rates"`
	Deductions Deductions `json:"deductions"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// SettingsInput is the writable part of a settings document.
type SettingsInput struct {
	Name       string
	Rates      Rates
	Deductions Deductions
}

type Earning struct {
	Kind   shift.Kind       `json:"kind"`
	Label  string           `json:"label"`
	Count  int              `json:"count"`
	Rate   *decimal.Decimal `json:"rate"`
	Amount decimal.Decimal  `json:"amount"`
}

type Breakdown struct {
	TotalRecords        int                `json:"totalRecords"`
	Counts              map[shift.Kind]int `json:"counts"`
	TotalEquivalentDays decimal.Decimal    `json:"totalEquivalentDays"`
}

type Result struct {
	Earnings        []Earning       `json:"earnings"`
	Gross           decimal.Decimal `json:"grossAmount"`
	Deductions      []Deduction     `json:"deductions"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	Net             decimal.Decimal `json:"netAmount"`
	Breakdown       Breakdown       `json:"breakdown"`
}

// Earning returns the earning line for kind k.
func (r Result) Earning(k shift.Kind) (Earning, bool) {
	for _, e := range r.Earnings {
		if e.Kind == k {
			return e, true
		}
	}
	return Earning{}, false
}

type Period struct {
	From time.Time `json:"startDate"`
	To   time.Time `json:"endDate"`
}

func periodOf(r attendance.DateRange) Period {
	n := r.Normalized()
	return Period{From: n.From, To: n.To}
}

type WorkerPayroll struct {
	WorkerID   string `json:"workerId"`
	Period     Period `json:"period"`
	SettingsID string `json:"settingsId"`
	Payroll    Result `json:"payroll"`
}

type ContractorPayroll struct {
	ContractorID    string          `json:"contractorId"`
	SiteID          string          `json:"siteId"`
	Period          Period          `json:"period"`
	SettingsID      string          `json:"settingsId"`
	Workers         []WorkerPayroll `json:"workers"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
}
