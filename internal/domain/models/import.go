package models

// Rejection reasons surfaced to the user.
const (
	ReasonInvalidDate    = "invalid date"
	ReasonEmptyDay       = "empty day"
	ReasonNonFinite      = "non-finite value"
	ReasonNegative       = "negative value"
	ReasonColumnCount    = "column count mismatch"
	ReasonMissingField   = "missing platform"
	ReasonMalformed      = "malformed record"
	ReasonNetworkTimeout = "network timeout"
)

// RejectedLine records one input line or record that was not persisted.
type RejectedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// LogStatus is the outcome of one import log entry.
type LogStatus string

const (
	LogAccepted LogStatus = "accepted"
	LogRejected LogStatus = "rejected"
	LogSkipped  LogStatus = "skipped"
)

// LogEntry is one line of the user-facing import log.
type LogEntry struct {
	Line    int       `json:"line"`
	Status  LogStatus `json:"status"`
	Detail  string    `json:"detail"`
	Records int       `json:"records,omitempty"`
}

// Totals are the running sums of an import run.
type Totals struct {
	Earnings float64 `json:"earnings"`
	Hours    float64 `json:"hours"`
	Km       float64 `json:"km"`
}

// Add accumulates a record into the totals.
func (t *Totals) Add(r ShiftRecord) {
	t.Earnings += r.Earnings
	t.Hours += r.Hours
	t.Km += r.Km
}

// ImportReport summarizes one bulk import run.
type ImportReport struct {
	RunID    string         `json:"runId"`
	DryRun   bool           `json:"dryRun"`
	Parsed   int            `json:"parsed"`
	Written  int            `json:"written"`
	Rejected []RejectedLine `json:"rejected"`
	Entries  []LogEntry     `json:"entries"`
	Totals   Totals         `json:"totals"`
}
