package registry

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"sitelabor/internal/platform/db"
)

const contractorColumns = `c.id::text, c.code, c.name, c.contact_number, c.is_active,
           (SELECT COUNT(1) FROM sites s WHERE s.contractor_id = c.id AND s.is_active),
           c.created_at, c.updated_at`

const siteColumns = `id::text, contractor_id::text, name, address, description, start_date,
           is_active, created_at, updated_at`

func scanContractor(row pgx.Row) (Contractor, error) {
	var c Contractor
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.ContactNumber, &c.IsActive, &c.ActiveSitesCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSite(row pgx.Row) (Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.ContractorID, &s.Name, &s.Address, &s.Description, &s.StartDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateContractor inserts the contractor and its initial sites together.
func (s *Store) CreateContractor(ctx context.Context, in ContractorInput) (Contractor, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Contractor{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	code, err := nextCode(ctx, tx, "contractor_code_seq", ContractorCodePrefix)
	if err != nil {
		return Contractor{}, err
	}
	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO contractors (code, name, contact_number)
    VALUES ($1, $2, $3)
    RETURNING id::text
  `, code, in.Name, in.ContactNumber).Scan(&id); err != nil {
		return Contractor{}, err
	}
	for _, site := range in.Sites {
		if _, err := tx.Exec(ctx, `
    INSERT INTO sites (contractor_id, name, address, description, start_date)
    VALUES ($1, $2, $3, $4, $5)
  `, id, site.Name, site.Address, site.Description, site.StartDate); err != nil {
			return Contractor{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Contractor{}, err
	}
	return s.GetContractor(ctx, id)
}

func (s *Store) GetContractor(ctx context.Context, id string) (Contractor, error) {
	c, err := scanContractor(s.DB.QueryRow(ctx, `
    SELECT `+contractorColumns+`
    FROM contractors c
    WHERE c.id = $1
  `, id))
	if err != nil {
		return Contractor{}, contractorNotFound(err)
	}
	if c.Sites, err = s.ListSites(ctx, id, false); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

func (s *Store) ListContractors(ctx context.Context, filter ContractorFilter) ([]Contractor, int, error) {
	where, args := searchWhere(filter.Search, filter.IsActive, "c.is_active", "c.name", "c.code", "c.contact_number")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM contractors c "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractorColumns+`
    FROM contractors c
    `+where+`
    ORDER BY c.name, c.id
    LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Contractor{}
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateContractor(ctx context.Context, id string, patch ContractorPatch) (Contractor, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE contractors
    SET name = COALESCE($2, name),
        contact_number = COALESCE($3, contact_number),
        updated_at = now()
    WHERE id = $1
  `, id, patch.Name, patch.ContactNumber)
	if err != nil {
		return Contractor{}, contractorNotFound(err)
	}
	if tag.RowsAffected() == 0 {
		return Contractor{}, ErrContractorNotFound
	}
	return s.GetContractor(ctx, id)
}

func (s *Store) SetContractorActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE contractors SET is_active = $2, updated_at = now() WHERE id = $1", id, active)
	if err != nil {
		return contractorNotFound(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContractorNotFound
	}
	return nil
}

func (s *Store) AddSite(ctx context.Context, contractorID string, in SiteInput) (Site, error) {
	site, err := scanSite(s.DB.QueryRow(ctx, `
    INSERT INTO sites (contractor_id, name, address, description, start_date)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING `+siteColumns,
		contractorID, in.Name, in.Address, in.Description, in.StartDate))
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok || db.InvalidText(err) {
			return Site{}, ErrContractorNotFound
		}
		return Site{}, err
	}
	return site, nil
}

func (s *Store) GetSite(ctx context.Context, contractorID, siteID string) (Site, error) {
	site, err := scanSite(s.DB.QueryRow(ctx, `
    SELECT `+siteColumns+`
    FROM sites
    WHERE id = $1 AND contractor_id = $2
  `, siteID, contractorID))
	if err != nil {
		return Site{}, siteNotFound(err)
	}
	return site, nil
}

func (s *Store) SiteByID(ctx context.Context, siteID string) (Site, error) {
	site, err := scanSite(s.DB.QueryRow(ctx, `
    SELECT `+siteColumns+`
    FROM sites
    WHERE id = $1
  `, siteID))
	if err != nil {
		return Site{}, siteNotFound(err)
	}
	return site, nil
}

func (s *Store) ListSites(ctx context.Context, contractorID string, activeOnly bool) ([]Site, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+siteColumns+`
    FROM sites
    WHERE contractor_id = $1 AND (NOT $2 OR is_active)
    ORDER BY start_date, name, id
  `, contractorID, activeOnly)
	if err != nil {
		if db.InvalidText(err) {
			return nil, ErrContractorNotFound
		}
		return nil, err
	}
	defer rows.Close()

	sites := []Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *Store) UpdateSite(ctx context.Context, contractorID, siteID string, patch SitePatch) (Site, error) {
	site, err := scanSite(s.DB.QueryRow(ctx, `
    UPDATE sites
    SET name = COALESCE($3, name),
        address = COALESCE($4, address),
        description = COALESCE($5, description),
        start_date = COALESCE($6, start_date),
        is_active = COALESCE($7, is_active),
        updated_at = now()
    WHERE id = $1 AND contractor_id = $2
    RETURNING `+siteColumns,
		siteID, contractorID, patch.Name, patch.Address, patch.Description, patch.StartDate, patch.IsActive))
	if err != nil {
		return Site{}, siteNotFound(err)
	}
	return site, nil
}

func contractorNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return ErrContractorNotFound
	}
	return err
}

func siteNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return ErrSiteNotFound
	}
	return err
}
