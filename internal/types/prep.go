package types

// PrepStatus is the state of server-side input validation
type PrepStatus string

// PREP states
const (
	PrepReady     PrepStatus = "Ready"
	PrepAnalyzing PrepStatus = "Analyzing"
	PrepError     PrepStatus = "Error"
)

// ParsePrepStatus maps a PREP reply value onto a PrepStatus.
// Anything other than Ready or Analyzing is an error state.
func ParsePrepStatus(str string) PrepStatus {
	switch PrepStatus(str) {
	case PrepReady, PrepAnalyzing:
		return PrepStatus(str)
	}
	return PrepError
}

// PrepOutcome is what a finished PREP phase reported
type PrepOutcome struct {
	Status    PrepStatus
	ScanCount int
	MSType    string
	Polls     int
	Warnings  []string
}
