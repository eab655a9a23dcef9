package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"sitelabor/internal/platform/db"
	"sitelabor/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const (
	activeIndex = "payroll_settings_single_active"

	// replaceLockKey is the transaction advisory lock serialising CreateActive.
	replaceLockKey int64 = 0x7061_7973_6574
)

const settingsColumns = `id::text, name,
           rate_half::text, rate_full::text, rate_onehalf::text, rate_double::text,
           deduction_pf::text, deduction_esi::text, deduction_advance::text,
           is_active, created_at, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	var half, full, oneHalf, double *string
	var pf, esi, advance string
	if err := row.Scan(&s.ID, &s.Name, &half, &full, &oneHalf, &double, &pf, &esi, &advance, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Settings{}, err
	}
	var err error
	for _, slot := range []struct {
		dst **decimal.Decimal
		raw *string
	}{
		{&s.Rates.Half, half},
		{&s.Rates.Full, full},
		{&s.Rates.OneHalf, oneHalf},
		{&s.Rates.Double, double},
	} {
		if *slot.dst, err = optionalDecimal(slot.raw); err != nil {
			return Settings{}, err
		}
	}
	if s.Deductions.PF, err = decimal.NewFromString(pf); err != nil {
		return Settings{}, err
	}
	if s.Deductions.ESI, err = decimal.NewFromString(esi); err != nil {
		return Settings{}, err
	}
	if s.Deductions.Advance, err = decimal.NewFromString(advance); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func optionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func numeric(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (in SettingsInput) args() []any {
	return []any{
		in.Name,
		numeric(in.Rates.Half), numeric(in.Rates.Full), numeric(in.Rates.OneHalf), numeric(in.Rates.Double),
		in.Deductions.PF.String(), in.Deductions.ESI.String(), in.Deductions.Advance.String(),
	}
}

func (s *Store) Active(ctx context.Context) (Settings, error) {
	out, err := scanSettings(s.DB.QueryRow(ctx, `
    SELECT `+settingsColumns+`
    FROM payroll_settings
    WHERE is_active
  `))
	if err != nil {
		return Settings{}, notFound(err)
	}
	return out, nil
}

// EnsureActive inserts defaults as the active settings unless an active row
// already exists, then returns whichever row is active. Concurrent callers
// all observe the same row because the partial unique index admits one.
func (s *Store) EnsureActive(ctx context.Context, defaults SettingsInput) (Settings, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_settings (name, rate_half, rate_full, rate_onehalf, rate_double,
                                  deduction_pf, deduction_esi, deduction_advance, is_active)
    VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, TRUE)
    ON CONFLICT (is_active) WHERE is_active DO NOTHING
  `, defaults.args()...); err != nil {
		return Settings{}, err
	}
	return s.Active(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (Settings, error) {
	out, err := scanSettings(s.DB.QueryRow(ctx, `
    SELECT `+settingsColumns+`
    FROM payroll_settings
    WHERE id = $1
  `, id))
	if err != nil {
		return Settings{}, notFound(err)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context) ([]Settings, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+settingsColumns+`
    FROM payroll_settings
    ORDER BY created_at DESC, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Settings{}
	for rows.Next() {
		item, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, input SettingsInput) (Settings, error) {
	args := append([]any{id}, input.args()...)
	out, err := scanSettings(s.DB.QueryRow(ctx, `
    UPDATE payroll_settings
    SET name = $2,
        rate_half = $3::numeric, rate_full = $4::numeric, rate_onehalf = $5::numeric, rate_double = $6::numeric,
        deduction_pf = $7::numeric, deduction_esi = $8::numeric, deduction_advance = $9::numeric,
        updated_at = now()
    WHERE id = $1
    RETURNING `+settingsColumns, args...))
	if err != nil {
		return Settings{}, notFound(err)
	}
	return out, nil
}

// CreateActive deactivates the current settings and inserts input as the
// new active row in one transaction.
func (s *Store) CreateActive(ctx context.Context, input SettingsInput) (Settings, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Settings{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Replacements queue on the lock so each UPDATE sees the row the
	// previous one inserted.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", replaceLockKey); err != nil {
		return Settings{}, err
	}
	if _, err := tx.Exec(ctx, "UPDATE payroll_settings SET is_active = FALSE, updated_at = now() WHERE is_active"); err != nil {
		return Settings{}, err
	}
	out, err := scanSettings(tx.QueryRow(ctx, `
    INSERT INTO payroll_settings (name, rate_half, rate_full, rate_onehalf, rate_double,
                                  deduction_pf, deduction_esi, deduction_advance, is_active)
    VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, TRUE)
    RETURNING `+settingsColumns, input.args()...))
	if err != nil {
		return Settings{}, activeConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// activeConflict maps a lost race on the single active row, e.g. against a
// concurrent lazy default insert, to ErrSettingsConflict.
func activeConflict(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok && constraint == activeIndex {
		return ErrSettingsConflict
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return ErrNotFound
	}
	return err
}
