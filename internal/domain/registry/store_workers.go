package registry

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	cryptoutil "sitelabor/internal/platform/crypto"
	"sitelabor/internal/platform/db"
	"sitelabor/internal/platform/querier"
)

type Store struct {
	DB     querier.TxBeginner
	Cipher *cryptoutil.FieldCipher
}

func NewStore(db querier.TxBeginner, cipher *cryptoutil.FieldCipher) *Store {
	return &Store{DB: db, Cipher: cipher}
}

const workerColumns = `id::text, code, name, phone, national_id_enc,
           bank_account_number, bank_ifsc, bank_name, bank_branch,
           is_active, created_at, updated_at`

func (s *Store) scanWorker(row pgx.Row) (Worker, error) {
	var w Worker
	var sealed []byte
	if err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Phone, &sealed,
		&w.Bank.AccountNumber, &w.Bank.IFSC, &w.Bank.BankName, &w.Bank.Branch,
		&w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Worker{}, err
	}
	nationalID, err := s.Cipher.OpenString(sealed)
	if err != nil {
		return Worker{}, err
	}
	w.NationalID = nationalID
	w.NationalIDMasked = MaskNationalID(nationalID)
	return w, nil
}

func nextCode(ctx context.Context, q querier.Querier, sequence, prefix string) (string, error) {
	var seq int64
	if err := q.QueryRow(ctx, "SELECT nextval('"+sequence+"')").Scan(&seq); err != nil {
		return "", err
	}
	return formatCode(prefix, time.Now(), seq), nil
}

func (s *Store) CreateWorker(ctx context.Context, in WorkerInput) (Worker, error) {
	sealed, err := s.Cipher.SealString(in.NationalID)
	if err != nil {
		return Worker{}, err
	}
	code, err := nextCode(ctx, s.DB, "worker_code_seq", WorkerCodePrefix)
	if err != nil {
		return Worker{}, err
	}
	w, err := s.scanWorker(s.DB.QueryRow(ctx, `
    INSERT INTO workers (code, name, phone, national_id_enc, national_id_digest,
                         bank_account_number, bank_ifsc, bank_name, bank_branch)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+workerColumns,
		code, in.Name, in.Phone, sealed, s.Cipher.Digest(in.NationalID),
		in.Bank.AccountNumber, in.Bank.IFSC, in.Bank.BankName, in.Bank.Branch))
	if err != nil {
		return Worker{}, workerWriteError(err)
	}
	return w, nil
}

func (s *Store) GetWorker(ctx context.Context, id string) (Worker, error) {
	w, err := s.scanWorker(s.DB.QueryRow(ctx, `
    SELECT `+workerColumns+`
    FROM workers
    WHERE id = $1
  `, id))
	if err != nil {
		return Worker{}, workerNotFound(err)
	}
	return w, nil
}

func searchWhere(search string, isActive *bool, activeColumn string, columns ...string) (string, []any) {
	var clauses []string
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		var ors []string
		for _, c := range columns {
			ors = append(ors, c+" ILIKE $1")
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if isActive != nil {
		args = append(args, *isActive)
		clauses = append(clauses, activeColumn+" = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, int, error) {
	where, args := searchWhere(filter.Search, filter.IsActive, "is_active", "name", "code", "phone")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM workers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, `
    SELECT `+workerColumns+`
    FROM workers
    `+where+`
    ORDER BY name, id
    LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	workers := []Worker{}
	for rows.Next() {
		w, err := s.scanWorker(rows)
		if err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}
	return workers, total, rows.Err()
}

func (s *Store) UpdateWorker(ctx context.Context, id string, patch WorkerPatch) (Worker, error) {
	var sealed, digest []byte
	if patch.NationalID != nil {
		var err error
		if sealed, err = s.Cipher.SealString(*patch.NationalID); err != nil {
			return Worker{}, err
		}
		digest = s.Cipher.Digest(*patch.NationalID)
	}
	var account, ifsc, bankName, branch *string
	if patch.Bank != nil {
		account, ifsc, bankName, branch = &patch.Bank.AccountNumber, &patch.Bank.IFSC, &patch.Bank.BankName, &patch.Bank.Branch
	}

	w, err := s.scanWorker(s.DB.QueryRow(ctx, `
    UPDATE workers
    SET name = COALESCE($2, name),
        phone = COALESCE($3, phone),
        national_id_enc = COALESCE($4, national_id_enc),
        national_id_digest = COALESCE($5, national_id_digest),
        bank_account_number = COALESCE($6, bank_account_number),
        bank_ifsc = COALESCE($7, bank_ifsc),
        bank_name = COALESCE($8, bank_name),
        bank_branch = COALESCE($9, bank_branch),
        is_active = COALESCE($10, is_active),
        updated_at = now()
    WHERE id = $1
    RETURNING `+workerColumns,
		id, patch.Name, patch.Phone, sealed, digest, account, ifsc, bankName, branch, patch.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
			return Worker{}, ErrWorkerNotFound
		}
		return Worker{}, workerWriteError(err)
	}
	return w, nil
}

func workerWriteError(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok && strings.Contains(constraint, "national_id") {
		return ErrDuplicateNationalID
	}
	return err
}

func workerNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return ErrWorkerNotFound
	}
	return err
}
