package checker

import (
	"math"
	"time"
)

// Status is the up/down summary used in tabular output.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// CheckedAtLayout is the local timestamp format used in reports.
const CheckedAtLayout = "2006-01-02 15:04:05"

// CheckResult is the outcome of a single probe.
//
// StatusCode is 0 when no response was received; Error is empty unless a
// transport failure occurred. Exactly one of the two is set.
type CheckResult struct {
	URL              string
	Scheme           Scheme
	Expected         string
	Reachable        bool
	ContainsExpected bool
	StatusCode       int
	ResponseTime     time.Duration
	Error            string
	CheckedAt        time.Time
}

// Healthy reports whether the target answered 200 and served the expected text.
func (r CheckResult) Healthy() bool {
	return r.Reachable && r.ContainsExpected
}

// Status maps Healthy onto up/down.
func (r CheckResult) Status() Status {
	if r.Healthy() {
		return StatusUp
	}
	return StatusDown
}

// ElapsedSeconds returns the response time in seconds rounded to milliseconds.
func (r CheckResult) ElapsedSeconds() float64 {
	return math.Round(r.ResponseTime.Seconds()*1000) / 1000
}

// CheckedAtString formats CheckedAt in local time.
func (r CheckResult) CheckedAtString() string {
	return r.CheckedAt.Local().Format(CheckedAtLayout)
}
