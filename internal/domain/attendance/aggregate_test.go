package attendance

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/shift"
)

func rec(id, worker string, kind shift.Kind, day int) Record {
	return Record{
		ID:           id,
		WorkerID:     worker,
		ContractorID: "c1",
		SiteID:       "s1",
		Date:         time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		ShiftKind:    kind,
	}
}

func sampleRecords() []Record {
	return []Record{
		rec("a", "w1", shift.Half, 1),
		rec("b", "w2", shift.Full, 1),
		rec("c", "w1", shift.Double, 2),
		rec("d", "w3", shift.OneHalf, 2),
		rec("e", "w2", shift.Half, 3),
		rec("f", "w1", shift.Full, 3),
		rec("g", "w3", shift.Full, 4),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalRecords != 0 || !s.TotalEquivalentDays.IsZero() {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	for _, k := range shift.Kinds() {
		n, ok := s.Counts[k]
		if !ok || n != 0 {
			t.Fatalf("expected zero count for %s, got %d (present=%v)", k, n, ok)
		}
	}
}

func TestSummarizeCounts(t *testing.T) {
	s, err := Summarize(sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalRecords != 7 {
		t.Fatalf("expected 7 records, got %d", s.TotalRecords)
	}
	want := map[shift.Kind]int{shift.Half: 2, shift.Full: 3, shift.OneHalf: 1, shift.Double: 1}
	for k, n := range want {
		if s.Count(k) != n {
			t.Fatalf("%s: expected %d, got %d", k, n, s.Count(k))
		}
	}
	// 2*0.5 + 3*1 + 1*1.5 + 1*2
	if !s.TotalEquivalentDays.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected 7.5 equivalent days, got %s", s.TotalEquivalentDays)
	}
}

func TestSummarizeIsOrderIndependent(t *testing.T) {
	records := sampleRecords()
	base, err := Summarize(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Summarize(shuffled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(base) {
			t.Fatalf("permutation %d changed summary: %+v vs %+v", i, got, base)
		}
	}
}

func TestSummarizeWeightedSumIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := shift.Kinds()
	for i := 0; i < 100; i++ {
		n := rng.Intn(40)
		records := make([]Record, n)
		for j := range records {
			records[j] = rec("r", "w", kinds[rng.Intn(len(kinds))], 1)
		}
		s, err := Summarize(records)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total, err := s.WeightedTotal()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.Equal(s.TotalEquivalentDays) {
			t.Fatalf("identity broken: weighted %s vs total %s", total, s.TotalEquivalentDays)
		}
	}
}

func TestSummarizeUnknownKind(t *testing.T) {
	records := append(sampleRecords(), rec("bad", "w1", "triple", 5))
	_, err := Summarize(records)
	if !errors.Is(err, shift.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	var kindErr *shift.UnknownKindError
	if !errors.As(err, &kindErr) || kindErr.Kind != "triple" {
		t.Fatalf("expected triple in error, got %v", err)
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	snapshot := append([]Record(nil), records...)
	if _, err := Summarize(records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range records {
		if records[i] != snapshot[i] {
			t.Fatalf("record %d mutated", i)
		}
	}
}

func TestGroupByWorkerFirstAppearance(t *testing.T) {
	records := []Record{
		rec("A", "worker2", shift.Full, 1),
		rec("B", "worker1", shift.Half, 1),
		rec("C", "worker2", shift.Double, 2),
	}
	groups, err := GroupByWorker(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].WorkerID != "worker2" || groups[1].WorkerID != "worker1" {
		t.Fatalf("unexpected order: %s, %s", groups[0].WorkerID, groups[1].WorkerID)
	}
	if len(groups[0].Records) != 2 || groups[0].Records[0].ID != "A" || groups[0].Records[1].ID != "C" {
		t.Fatalf("unexpected worker2 records: %+v", groups[0].Records)
	}
	if !groups[0].Summary.TotalEquivalentDays.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected 3 days for worker2, got %s", groups[0].Summary.TotalEquivalentDays)
	}
	if groups[1].Summary.Count(shift.Half) != 1 || !groups[1].Summary.TotalEquivalentDays.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("unexpected worker1 summary: %+v", groups[1].Summary)
	}
}

func TestGroupByWorkerDeterministic(t *testing.T) {
	records := sampleRecords()
	first, err := GroupByWorker(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := GroupByWorker(records)
		for j := range first {
			if again[j].WorkerID != first[j].WorkerID || !again[j].Summary.Equal(first[j].Summary) {
				t.Fatalf("run %d differs at group %d", i, j)
			}
		}
	}
}

func TestGroupByWorkerMatchesSummarize(t *testing.T) {
	records := sampleRecords()
	groups, err := GroupByWorker(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := decimal.Zero
	count := 0
	for _, g := range groups {
		total = total.Add(g.Summary.TotalEquivalentDays)
		count += g.Summary.TotalRecords
	}
	whole, _ := Summarize(records)
	if !total.Equal(whole.TotalEquivalentDays) || count != whole.TotalRecords {
		t.Fatalf("group totals %s/%d differ from summary %s/%d", total, count, whole.TotalEquivalentDays, whole.TotalRecords)
	}
}

func TestGroupByWorkerEmptyAndUnknown(t *testing.T) {
	groups, err := GroupByWorker(nil)
	if err != nil || groups == nil || len(groups) != 0 {
		t.Fatalf("expected empty non-nil groups, got %v (%v)", groups, err)
	}
	if _, err := GroupByWorker([]Record{rec("x", "w1", "triple", 1)}); !errors.Is(err, shift.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2025, 1, 10, 1, 30, 0, 0, ist)
	got := NormalizeDate(in)
	want := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
