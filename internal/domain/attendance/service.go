package attendance

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/platform/metrics"
)

type Service struct {
	store   StoreAPI
	metrics *metrics.Collector
}

func NewService(store StoreAPI, collector *metrics.Collector) *Service {
	return &Service{store: store, metrics: collector}
}

// CreateBatch stores every entry or none of them. Entries that repeat a
// tuple inside the batch are rejected before the store is touched.
func (s *Service) CreateBatch(ctx context.Context, createdBy string, entries []NewEntry) ([]Record, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	seen := make(map[Key]struct{}, len(entries))
	normalized := make([]NewEntry, len(entries))
	for i, e := range entries {
		kind, err := shift.Parse(string(e.ShiftKind))
		if err != nil {
			return nil, err
		}
		if err := checkRemarks(e.Remarks); err != nil {
			return nil, err
		}
		e.ShiftKind = kind
		e.Date = NormalizeDate(e.Date)
		key := e.Key()
		if _, dup := seen[key]; dup {
			s.metrics.DuplicateBatch()
			return nil, &DuplicateEntryError{Key: key}
		}
		seen[key] = struct{}{}
		normalized[i] = e
	}

	created, err := s.store.CreateBatch(ctx, createdBy, normalized)
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			s.metrics.DuplicateBatch()
		} else if !errors.Is(err, ErrReferenceNotFound) {
			logging.Error("attendance", "create_batch", err, logrus.Fields{"entries": len(entries)})
		}
		return nil, err
	}
	s.metrics.AttendanceCreated(len(created))
	return created, nil
}

func checkRemarks(remarks string) error {
	if utf8.RuneCountInString(remarks) > MaxRemarksLength {
		return ErrRemarksTooLong
	}
	return nil
}

func checkRange(r DateRange) error {
	if !r.From.IsZero() && !r.To.IsZero() && NormalizeDate(r.To).Before(NormalizeDate(r.From)) {
		return ErrInvalidRange
	}
	return nil
}

// Query lists records for the listing endpoint, with a bounded limit.
func (s *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	if err := checkRange(filter.Range); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, change Change) (Record, error) {
	if change.ShiftKind != nil {
		kind, err := shift.Parse(string(*change.ShiftKind))
		if err != nil {
			return Record{}, err
		}
		change.ShiftKind = &kind
	}
	if change.Remarks != nil {
		if err := checkRemarks(*change.Remarks); err != nil {
			return Record{}, err
		}
	}
	return s.store.Update(ctx, id, change)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) CountOn(ctx context.Context, day time.Time) (int, error) {
	return s.store.CountOn(ctx, day)
}

// Records returns every record in scope, unpaged, for aggregation.
func (s *Service) Records(ctx context.Context, filter Filter) ([]Record, error) {
	if err := checkRange(filter.Range); err != nil {
		return nil, err
	}
	filter.Limit = 0
	return s.store.List(ctx, filter)
}

// SummarizeForWorker aggregates a worker's records across all contractors
// and sites in the range.
func (s *Service) SummarizeForWorker(ctx context.Context, workerID string, r DateRange) (Summary, []Record, error) {
	records, err := s.Records(ctx, Filter{WorkerID: workerID, Range: r})
	if err != nil {
		return Summary{}, nil, err
	}
	summary, err := Summarize(records)
	if err != nil {
		return Summary{}, nil, err
	}
	return summary, records, nil
}

func (s *Service) SummarizeForContractorSite(ctx context.Context, contractorID, siteID string, r DateRange) ([]WorkerGroup, error) {
	records, err := s.Records(ctx, Filter{ContractorID: contractorID, SiteID: siteID, Range: r})
	if err != nil {
		return nil, err
	}
	return GroupByWorker(records)
}

// TodayCount counts entries dated on the server's current calendar day.
func (s *Service) TodayCount(ctx context.Context) (int, error) {
	return s.store.CountOn(ctx, time.Now())
}
