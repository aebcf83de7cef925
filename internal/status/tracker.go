// internal/status/tracker.go
package status

import (
	"errors"
	"math"
	"time"

	"github.com/tamzrod/tps55289/internal/tps55289"
)

// Reading is one monitor observation of a converter.
type Reading struct {
	At     time.Time
	Report tps55289.StatusReport
	State  tps55289.State
	Err    error
}

// Tracker owns the snapshot of one converter. It is driven by monitor
// readings and a 1 Hz tick; both report whether the snapshot changed.
// Not safe for concurrent use.
type Tracker struct {
	snap       Snapshot
	lastSeen   time.Time
	staleAfter time.Duration
}

// NewTracker starts in HealthUnknown. staleAfter <= 0 disables staleness.
func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{
		snap:       Snapshot{Health: HealthUnknown},
		staleAfter: staleAfter,
	}
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one reading into the snapshot.
func (t *Tracker) Observe(r Reading) bool {
	prev := t.snap
	t.lastSeen = r.At

	switch {
	case r.Err != nil:
		t.snap.Health = HealthError
		t.snap.LastErrorCode = ErrorCode(r.Err)

	case r.Report.Faulted():
		t.snap.Health = HealthFault
		t.snap.LastErrorCode = tps55289.CodeDeviceFault

	case !r.State.OutputEnabled:
		// keep the error code that explains why the output is off
		t.snap.Health = HealthDisabled

	default:
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
	}

	if r.Err == nil {
		t.snap.StatusRegister = uint16(r.Report.Raw)
		t.snap.OperatingMode = uint16(r.Report.Mode)
	}
	t.snap.OutputEnabled = 0
	if r.State.OutputEnabled {
		t.snap.OutputEnabled = 1
	}
	t.snap.VoltageMV = clampU16(r.State.EffectiveVoltage * 1000)
	t.snap.CurrentLimitMA = 0
	if r.State.CurrentLimitEnabled {
		t.snap.CurrentLimitMA = clampU16(r.State.EffectiveCurrentLimit * 1000)
	}

	return t.snap != prev
}

// Tick advances seconds_in_error while not healthy and marks the converter
// stale when readings stop, whatever its last health. The last error code
// is kept.
func (t *Tracker) Tick(now time.Time) bool {
	changed := false

	if t.snap.Health != HealthStale && t.staleAfter > 0 && !t.lastSeen.IsZero() &&
		now.Sub(t.lastSeen) > t.staleAfter {
		t.snap.Health = HealthStale
		changed = true
	}

	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	if t.snap.Health != HealthOK && t.snap.SecondsInError < math.MaxUint16 {
		t.snap.SecondsInError++
		changed = true
	}
	return changed
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return 1
}

func clampU16(v float64) uint16 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(math.Round(v))
}
