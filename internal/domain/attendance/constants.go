package attendance

const (
	MaxRemarksLength = 500
	DefaultListLimit = 100
	MaxListLimit     = 1000
)
