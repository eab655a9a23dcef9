package registry

import "errors"

var (
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrContractorNotFound  = errors.New("contractor not found")
	ErrSiteNotFound        = errors.New("site not found")
	ErrInvalidName         = errors.New("name must be between 2 and 100 characters")
	ErrInvalidPhone        = errors.New("phone number must be 10 digits")
	ErrInvalidNationalID   = errors.New("aadhaar number must be 12 digits")
	ErrInvalidIFSC         = errors.New("invalid IFSC code format")
	ErrDuplicateNationalID = errors.New("a worker with this aadhaar number already exists")
	ErrSiteNameRequired    = errors.New("site name is required")
	ErrContractorInactive  = errors.New("contractor is not active")
)
