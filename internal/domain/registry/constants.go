package registry

const (
	WorkerCodePrefix     = "EMP"
	ContractorCodePrefix = "CON"

	MinNameLength = 2
	MaxNameLength = 100

	DefaultListLimit = 100
	MaxListLimit     = 500
)
