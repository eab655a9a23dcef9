package registry

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	phonePattern      = regexp.MustCompile(`^[0-9]{10}$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9]{12}$`)
	ifscPattern       = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// MaskNationalID keeps only the last four digits.
func MaskNationalID(id string) string {
	if len(id) < 4 {
		return "XXXX-XXXX-XXXX"
	}
	return "XXXX-XXXX-" + id[len(id)-4:]
}

// formatCode renders codes like EMP240007: prefix, two-digit year, and a
// sequence number padded to four digits.
func formatCode(prefix string, now time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("06"), seq)
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func checkPhone(phone string, optional bool) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" && optional {
		return "", nil
	}
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func checkNationalID(id string) (string, error) {
	id = strings.ReplaceAll(strings.TrimSpace(id), " ", "")
	if !nationalIDPattern.MatchString(id) {
		return "", ErrInvalidNationalID
	}
	return id, nil
}

func checkBank(b Bank) (Bank, error) {
	b.AccountNumber = strings.TrimSpace(b.AccountNumber)
	b.BankName = strings.TrimSpace(b.BankName)
	b.Branch = strings.TrimSpace(b.Branch)
	b.IFSC = strings.ToUpper(strings.TrimSpace(b.IFSC))
	if b.IFSC != "" && !ifscPattern.MatchString(b.IFSC) {
		return Bank{}, ErrInvalidIFSC
	}
	return b, nil
}

func (in WorkerInput) normalized() (WorkerInput, error) {
	var err error
	if in.Name, err = checkName(in.Name); err != nil {
		return WorkerInput{}, err
	}
	if in.Phone, err = checkPhone(in.Phone, false); err != nil {
		return WorkerInput{}, err
	}
	if in.NationalID, err = checkNationalID(in.NationalID); err != nil {
		return WorkerInput{}, err
	}
	if in.Bank, err = checkBank(in.Bank); err != nil {
		return WorkerInput{}, err
	}
	return in, nil
}

func (p WorkerPatch) normalized() (WorkerPatch, error) {
	if p.Name != nil {
		v, err := checkName(*p.Name)
		if err != nil {
			return WorkerPatch{}, err
		}
		p.Name = &v
	}
	if p.Phone != nil {
		v, err := checkPhone(*p.Phone, false)
		if err != nil {
			return WorkerPatch{}, err
		}
		p.Phone = &v
	}
	if p.NationalID != nil {
		v, err := checkNationalID(*p.NationalID)
		if err != nil {
			return WorkerPatch{}, err
		}
		p.NationalID = &v
	}
	if p.Bank != nil {
		v, err := checkBank(*p.Bank)
		if err != nil {
			return WorkerPatch{}, err
		}
		p.Bank = &v
	}
	return p, nil
}

func (in SiteInput) normalized(now time.Time) (SiteInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return SiteInput{}, ErrSiteNameRequired
	}
	in.Address = strings.TrimSpace(in.Address)
	in.Description = strings.TrimSpace(in.Description)
	if in.StartDate.IsZero() {
		in.StartDate = now
	}
	y, m, d := in.StartDate.Date()
	in.StartDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return in, nil
}

func (in ContractorInput) normalized(now time.Time) (ContractorInput, error) {
	var err error
	if in.Name, err = checkName(in.Name); err != nil {
		return ContractorInput{}, err
	}
	if in.ContactNumber, err = checkPhone(in.ContactNumber, true); err != nil {
		return ContractorInput{}, err
	}
	sites := make([]SiteInput, len(in.Sites))
	for i, site := range in.Sites {
		if sites[i], err = site.normalized(now); err != nil {
			return ContractorInput{}, err
		}
	}
	in.Sites = sites
	return in, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
