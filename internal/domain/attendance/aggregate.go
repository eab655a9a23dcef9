package attendance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/shift"
)

// NewSummary returns the summary of no records: every known kind at zero.
func NewSummary() Summary {
	counts := make(map[shift.Kind]int, len(shift.Kinds()))
	for _, k := range shift.Kinds() {
		counts[k] = 0
	}
	return Summary{Counts: counts, TotalEquivalentDays: decimal.Zero}
}

func (s *Summary) add(k shift.Kind) error {
	w, err := shift.Weight(k)
	if err != nil {
		return err
	}
	s.Counts[k]++
	s.TotalRecords++
	s.TotalEquivalentDays = s.TotalEquivalentDays.Add(w)
	return nil
}

// Summarize folds records into counts per shift kind and the weighted day
// total. Accumulation is commutative, so input order does not matter.
func Summarize(records []Record) (Summary, error) {
	s := NewSummary()
	for _, r := range records {
		if err := s.add(r.ShiftKind); err != nil {
			return Summary{}, fmt.Errorf("attendance %s: %w", r.ID, err)
		}
	}
	return s, nil
}

// GroupByWorker partitions records by worker, ordering groups by the first
// appearance of each worker in records.
func GroupByWorker(records []Record) ([]WorkerGroup, error) {
	groups := []WorkerGroup{}
	position := map[string]int{}
	for _, r := range records {
		i, ok := position[r.WorkerID]
		if !ok {
			i = len(groups)
			position[r.WorkerID] = i
			groups = append(groups, WorkerGroup{WorkerID: r.WorkerID, Summary: NewSummary()})
		}
		if err := groups[i].Summary.add(r.ShiftKind); err != nil {
			return nil, fmt.Errorf("attendance %s: %w", r.ID, err)
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups, nil
}

func (s Summary) Count(k shift.Kind) int {
	return s.Counts[k]
}

// WeightedTotal recomputes the day total from the counts alone. It always
// equals TotalEquivalentDays for a summary built by Summarize.
func (s Summary) WeightedTotal() (decimal.Decimal, error) {
	total := decimal.Zero
	for k, n := range s.Counts {
		if n == 0 {
			continue
		}
		w, err := shift.Weight(k)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(w.Mul(decimal.NewFromInt(int64(n))))
	}
	return total, nil
}

func (s Summary) Equal(o Summary) bool {
	if s.TotalRecords != o.TotalRecords || !s.TotalEquivalentDays.Equal(o.TotalEquivalentDays) {
		return false
	}
	for k, n := range s.Counts {
		if o.Counts[k] != n {
			return false
		}
	}
	for k, n := range o.Counts {
		if s.Counts[k] != n {
			return false
		}
	}
	return true
}
