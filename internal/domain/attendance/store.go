package attendance

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/db"
	"sitelabor/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const recordColumns = `id::text, worker_id::text, contractor_id::text, site_id::text, work_date,
           shift_kind, remarks, COALESCE(created_by::text, ''), created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var kind string
	if err := row.Scan(&r.ID, &r.WorkerID, &r.ContractorID, &r.SiteID, &r.Date, &kind, &r.Remarks, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	r.ShiftKind = shift.Kind(kind)
	r.Date = NormalizeDate(r.Date)
	return r, nil
}

// CreateBatch inserts every entry in one transaction. Any failure rolls the
// whole batch back.
func (s *Store) CreateBatch(ctx context.Context, createdBy string, entries []NewEntry) ([]Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := make([]Record, 0, len(entries))
	for _, e := range entries {
		row := tx.QueryRow(ctx, `
    INSERT INTO attendance (worker_id, contractor_id, site_id, work_date, shift_kind, remarks, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING `+recordColumns,
			e.WorkerID, e.ContractorID, e.SiteID, NormalizeDate(e.Date), string(e.ShiftKind), e.Remarks, nullIfEmpty(createdBy))
		r, err := scanRecord(row)
		if err != nil {
			return nil, translateWriteError(err, e.Key())
		}
		created = append(created, r)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateWriteError(err, Key{})
	}
	return created, nil
}

func translateWriteError(err error, key Key) error {
	if _, ok := db.UniqueViolation(err); ok {
		return &DuplicateEntryError{Key: key}
	}
	if _, ok := db.ForeignKeyViolation(err); ok {
		return ErrReferenceNotFound
	}
	if db.InvalidText(err) {
		return ErrReferenceNotFound
	}
	return err
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.WorkerID != "" {
		add("worker_id = ?", f.WorkerID)
	}
	if f.ContractorID != "" {
		add("contractor_id = ?", f.ContractorID)
	}
	if f.SiteID != "" {
		add("site_id = ?", f.SiteID)
	}
	r := f.Range.Normalized()
	if !r.From.IsZero() {
		add("work_date >= ?", r.From)
	}
	if !r.To.IsZero() {
		add("work_date <= ?", r.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	where, args := filter.where()
	query := `
    SELECT ` + recordColumns + `
    FROM attendance
    ` + where + `
    ORDER BY work_date DESC, created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		if db.InvalidText(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	r, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance
    WHERE id = $1
  `, id))
	if err != nil {
		return Record{}, notFound(err)
	}
	return r, nil
}

func (s *Store) Update(ctx context.Context, id string, change Change) (Record, error) {
	var kind, remarks *string
	if change.ShiftKind != nil {
		k := string(*change.ShiftKind)
		kind = &k
	}
	remarks = change.Remarks

	r, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendance
    SET shift_kind = COALESCE($2, shift_kind),
        remarks = COALESCE($3, remarks),
        updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		id, kind, remarks))
	if err != nil {
		return Record{}, notFound(err)
	}
	return r, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountOn(ctx context.Context, day time.Time) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM attendance WHERE work_date = $1", NormalizeDate(day)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return ErrNotFound
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
