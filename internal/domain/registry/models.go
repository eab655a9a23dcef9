package registry

import "time"

type Bank struct {
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifscCode"`
	BankName      string `json:"bankName"`
	Branch        string `json:"branchName"`
}

// Worker is a person whose attendance is recorded. The national ID is held
// only long enough to seal it; responses carry the masked form.
type Worker struct {
	ID               string    `json:"id"`
	Code             string    `json:"employeeId"`
	Name             string    `json:"name"`
	Phone            string    `json:"phoneNumber"`
	NationalID       string    `json:"-"`
	NationalIDMasked string    `json:"aadhaarNumberMasked"`
	Bank             Bank      `json:"bankDetails"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type WorkerInput struct {
	Name       string
	Phone      string
	NationalID string
	Bank       Bank
}

// WorkerPatch is a partial update; nil fields are left untouched.
type WorkerPatch struct {
	Name       *string
	Phone      *string
	NationalID *string
	Bank       *Bank
	IsActive   *bool
}

type WorkerFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type Contractor struct {
	ID               string    `json:"id"`
	Code             string    `json:"contractorId"`
	Name             string    `json:"name"`
	ContactNumber    string    `json:"contactNumber,omitempty"`
	IsActive         bool      `json:"isActive"`
	Sites            []Site    `json:"sites,omitempty"`
	ActiveSitesCount int       `json:"activeSitesCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type ContractorInput struct {
	Name          string
	ContactNumber string
	Sites         []SiteInput
}

type ContractorPatch struct {
	Name          *string
	ContactNumber *string
}

type ContractorFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type Site struct {
	ID           string    `json:"id"`
	ContractorID string    `json:"contractorId"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Description  string    `json:"description,omitempty"`
	StartDate    time.Time `json:"startDate"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SiteInput struct {
	Name        string
	Address     string
	Description string
	StartDate   time.Time
}

type SitePatch struct {
	Name        *string
	Address     *string
	Description *string
	StartDate   *time.Time
	IsActive    *bool
}
