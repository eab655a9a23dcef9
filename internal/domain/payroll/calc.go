package payroll

import (
	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/shift"
)

func rate(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultSettings is what gets persisted the first time settings are read
// and none exist.
func DefaultSettings() SettingsInput {
	return SettingsInput{
		Name: DefaultSettingsName,
		Rates: Rates{
			Half:    rate(250),
			Full:    rate(500),
			OneHalf: rate(750),
			Double:  rate(1000),
		},
		Deductions: Deductions{PF: decimal.Zero, ESI: decimal.Zero, Advance: decimal.Zero},
	}
}

// Derive prices an attendance summary. Kinds with a zero count earn zero
// whether or not they are rated; a non-zero count of an unrated kind fails.
// Net may be negative.
func Derive(summary attendance.Summary, settings Settings) (Result, error) {
	rates, deductions := settings.Rates, settings.Deductions
	for k, n := range summary.Counts {
		if n != 0 && !shift.Known(k) {
			return Result{}, &shift.UnknownKindError{Kind: k}
		}
	}

	res := Result{
		Earnings:  make([]Earning, 0, len(shift.Kinds())),
		Gross:     decimal.Zero,
		Breakdown: Breakdown{TotalRecords: summary.TotalRecords, Counts: map[shift.Kind]int{}, TotalEquivalentDays: summary.TotalEquivalentDays},
	}
	for _, k := range shift.Kinds() {
		n := summary.Count(k)
		res.Breakdown.Counts[k] = n
		line := Earning{Kind: k, Label: shift.Label(k), Count: n, Amount: decimal.Zero}
		if slot, _ := rates.slot(k); slot != nil {
			r := *slot
			line.Rate = &r
		}
		if n > 0 {
			r, err := rates.For(k)
			if err != nil {
				return Result{}, err
			}
			line.Amount = r.Mul(decimal.NewFromInt(int64(n)))
		}
		res.Gross = res.Gross.Add(line.Amount)
		res.Earnings = append(res.Earnings, line)
	}

	res.Deductions = deductions.Named()
	res.TotalDeductions = deductions.Total()
	res.Net = res.Gross.Sub(res.TotalDeductions)
	return res, nil
}
