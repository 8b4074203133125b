package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// String lengths
	MaxNameLength      = 100
	MaxSalesNoteLength = 2000

	// Registration ids are 6 to 8 digits.
	MinICOLength = 6
	MaxICOLength = 8
)
