// internal/monitor/types.go
package monitor

import (
	"time"

	"github.com/tamzrod/tps55289/internal/tps55289"
)

// Result is the outcome of one status poll.
type Result struct {
	ConverterID string
	At          time.Time

	Report tps55289.StatusReport
	State  tps55289.State // shadow configuration after the poll

	Err error // non-nil means STATUS could not be read or decoded
}

// Healthy reports a clean poll: readable, no fault, output on.
func (r Result) Healthy() bool {
	return r.Err == nil && !r.Report.Faulted() && r.State.OutputEnabled
}
