package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Probe outcome taxonomy. A probe has exactly two failure-free outcomes
// (available, unavailable-404) and one propagating-error outcome. 404 is
// data, not an error; everything else below is an error and is never
// retried or swallowed inside the engine.

// TransientError is a network-level probe failure: timeout, connection
// refused, DNS failure. The run is expected to fail and be retried
// wholesale on the next scheduled invocation.
type TransientError struct {
	Symbol string
	Date   time.Time
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error probing %s on %s: %v",
		e.Symbol, e.Date.Format("2006-01-02"), e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// HTTPError is an unexpected HTTP outcome (non-2xx, non-404).
type HTTPError struct {
	Symbol     string
	Date       time.Time
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("probe failed for %s on %s: HTTP %d",
		e.Symbol, e.Date.Format("2006-01-02"), e.StatusCode)
}

// SchemaError is malformed remote data: an unparseable bucket listing,
// a kline CSV with the wrong shape, an invalid archive. Fatal for the
// affected operation.
type SchemaError struct {
	Op     string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ProbeFailure records one failed (symbol, date) probe inside a batch.
type ProbeFailure struct {
	Symbol string
	Date   time.Time
	Err    error
}

// BatchError aggregates every probe failure of a batch. The batch prober
// always drains the pool before returning it, so successful results
// accompany the error.
type BatchError struct {
	Failures []ProbeFailure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch probe failed for %d pairs:", len(e.Failures))
	for i, f := range e.Failures {
		if i >= 5 {
			fmt.Fprintf(&b, " (+%d more)", len(e.Failures)-i)
			break
		}
		fmt.Fprintf(&b, " %s/%s: %v;", f.Symbol, f.Date.Format("2006-01-02"), f.Err)
	}
	return b.String()
}
