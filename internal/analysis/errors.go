package analysis

import "fmt"

// InsufficientDataError means a chart cannot be computed from the data at
// hand, e.g. a correlation matrix with fewer than two numeric columns. It is
// not fatal: callers show Reason instead of the chart.
type InsufficientDataError struct {
	Chart  string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough data for %s: %s", e.Chart, e.Reason)
}
