package payroll

const (
	DefaultSettingsName = "Default Payroll Settings"

	DeductionPF      = "pf"
	DeductionESI     = "esi"
	DeductionAdvance = "advance"
)
