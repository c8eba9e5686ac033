package dashboard

import "fmt"

// Status is the freshness class of a timestamp.
type Status string

// Freshness classes.
const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
	StatusUnknown Status = "unknown"
)

// NotAvailable is shown when a stored timestamp cannot be read.
const NotAvailable = "N/A"

// Indicator returns the colored dot for the status.
func (s Status) Indicator() string {
	switch s {
	case StatusSuccess:
		return "🟢"
	case StatusWarning:
		return "🟡"
	case StatusDanger:
		return "🔴"
	default:
		return "⚪"
	}
}

// CSSClass returns the table row class for the status.
func (s Status) CSSClass() string {
	return "status-" + string(s)
}

// Thresholds are age limits in minutes.
type Thresholds struct {
	Success int
	Warning int
}

// Classify maps an age to a status. Anything at or past the warning
// threshold is danger until a newer timestamp arrives.
func (t Thresholds) Classify(ageMinutes int) Status {
	switch {
	case ageMinutes >= t.Warning:
		return StatusDanger
	case ageMinutes >= t.Success:
		return StatusWarning
	default:
		return StatusSuccess
	}
}

// Freshness describes how old one timestamp is.
type Freshness struct {
	Status     Status
	AgeMinutes int
	TimeDiff   string
}

// Indicator returns the colored dot for the freshness status.
func (f Freshness) Indicator() string {
	return f.Status.Indicator()
}

// Assess classifies a stored timestamp. Unparseable values are unknown.
func Assess(clock *Clock, thresholds Thresholds, stored string) Freshness {
	age, err := clock.AgeMinutes(stored)
	if err != nil {
		return Freshness{Status: StatusUnknown, AgeMinutes: -1, TimeDiff: NotAvailable}
	}
	return Freshness{
		Status:     thresholds.Classify(age),
		AgeMinutes: age,
		TimeDiff:   TimeDiff(age),
	}
}

// TimeDiff renders an age in minutes as a short relative phrase.
func TimeDiff(minutes int) string {
	const (
		hour = 60
		day  = 24 * hour
	)

	switch {
	case minutes >= day:
		return plural(minutes/day, "day")
	case minutes >= hour:
		return plural(minutes/hour, "hour")
	default:
		return fmt.Sprintf("%d min ago", minutes)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
