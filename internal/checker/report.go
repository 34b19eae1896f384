package checker

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// WriteReport prints a human-readable block describing one probe.
func WriteReport(w io.Writer, r CheckResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	status := "-"
	if r.StatusCode != 0 {
		status = strconv.Itoa(r.StatusCode)
	}
	errMsg := "-"
	if r.Error != "" {
		errMsg = r.Error
	}

	fmt.Fprintln(tw, "Service Status Check Results:")
	fmt.Fprintf(tw, "url:\t%s\n", r.URL)
	fmt.Fprintf(tw, "scheme:\t%s\n", r.Scheme)
	fmt.Fprintf(tw, "expected:\t%s\n", r.Expected)
	fmt.Fprintf(tw, "reachable:\t%t\n", r.Reachable)
	fmt.Fprintf(tw, "contains_expected:\t%t\n", r.ContainsExpected)
	fmt.Fprintf(tw, "status_code:\t%s\n", status)
	fmt.Fprintf(tw, "response_time:\t%.3f\n", r.ElapsedSeconds())
	fmt.Fprintf(tw, "error:\t%s\n", errMsg)
	fmt.Fprintf(tw, "checked_at:\t%s\n", r.CheckedAtString())
	fmt.Fprintln(tw)
	return tw.Flush()
}
