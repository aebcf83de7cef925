// internal/tps55289/types.go
package tps55289

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StepSize is the internal feedback step (INTFB field of VOUT_FS).
type StepSize uint8

const (
	Step2p5mV StepSize = iota
	Step5mV
	Step7p5mV
	Step10mV
)

var (
	stepRatios     = [...]float64{0.2256, 0.1128, 0.0752, 0.0564}
	stepMillivolts = [...]float64{2.5, 5, 7.5, 10}
)

// Ratio is VREF / VOUT of the internal divider.
func (s StepSize) Ratio() float64 { return stepRatios[s&3] }

// Millivolts is the nominal output step of one reference code.
func (s StepSize) Millivolts() float64 { return stepMillivolts[s&3] }

func (s StepSize) String() string {
	return fmt.Sprintf("%gmV", s.Millivolts())
}

// StepSizeFromMillivolts maps 2.5, 5, 7.5 or 10 to a StepSize.
func StepSizeFromMillivolts(mv float64) (StepSize, bool) {
	for i, v := range stepMillivolts {
		if math.Abs(mv-v) < gridEpsilon {
			return StepSize(i), true
		}
	}
	return 0, false
}

// SlewRate is the output transition slope (SR field of VOUT_SR).
type SlewRate uint8

const (
	SlewRate1p25 SlewRate = iota // 1.25 mV/us
	SlewRate2p5                  // 2.5 mV/us
	SlewRate5                    // 5 mV/us
	SlewRate10                   // 10 mV/us
)

// MillivoltsPerMicrosecond returns the slope for a valid code.
func (s SlewRate) MillivoltsPerMicrosecond() float64 {
	return 1.25 * float64(uint(1)<<(s&3))
}

func (s SlewRate) String() string {
	if s > SlewRate10 {
		return fmt.Sprintf("SlewRate(%d)", uint8(s))
	}
	return fmt.Sprintf("%gmV/us", s.MillivoltsPerMicrosecond())
}

// OCPDelay is the overcurrent response time (OCP_DELAY field of VOUT_SR).
type OCPDelay uint8

const (
	OCPDelay128us OCPDelay = iota
	OCPDelay3ms            // 3.072 ms
	OCPDelay6ms            // 6.144 ms
	OCPDelay12ms           // 12.288 ms
)

var ocpDelays = [...]time.Duration{
	128 * time.Microsecond,
	3072 * time.Microsecond,
	6144 * time.Microsecond,
	12288 * time.Microsecond,
}

func (d OCPDelay) Duration() time.Duration { return ocpDelays[d&3] }

func (d OCPDelay) String() string {
	if d > OCPDelay12ms {
		return fmt.Sprintf("OCPDelay(%d)", uint8(d))
	}
	return d.Duration().String()
}

// Feedback selects how VOUT is sensed (FB bit of VOUT_FS).
type Feedback uint8

const (
	FeedbackInternal Feedback = iota
	FeedbackExternal
)

func (f Feedback) String() string {
	switch f {
	case FeedbackInternal:
		return "internal"
	case FeedbackExternal:
		return "external"
	}
	return fmt.Sprintf("Feedback(%d)", uint8(f))
}

// ParseFeedback accepts "internal" or "external".
func ParseFeedback(s string) (Feedback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "internal":
		return FeedbackInternal, nil
	case "external":
		return FeedbackExternal, nil
	}
	return 0, selectorError("ParseFeedback", "feedback %q: want internal or external", s)
}

// CompensationSource selects where the cable compensation comes from.
type CompensationSource uint8

const (
	CompensationInternal CompensationSource = iota
	CompensationExternal                    // set by resistor on the CDC pin
)

func (c CompensationSource) String() string {
	if c == CompensationExternal {
		return "external"
	}
	return "internal"
}

// LightLoad selects the light-load switching mode (FPWM bit of MODE).
type LightLoad uint8

const (
	LightLoadPFM LightLoad = iota
	LightLoadFPWM
)

func (l LightLoad) String() string {
	if l == LightLoadFPWM {
		return "FPWM"
	}
	return "PFM"
}

// ParseLightLoad accepts "pfm" or "fpwm".
func ParseLightLoad(s string) (LightLoad, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pfm":
		return LightLoadPFM, nil
	case "fpwm":
		return LightLoadFPWM, nil
	}
	return 0, selectorError("ParseLightLoad", "light load mode %q: want pfm or fpwm", s)
}

// OperatingMode is reported in bits 0-1 of STATUS.
type OperatingMode uint8

const (
	ModeBoost OperatingMode = iota
	ModeBuck
	ModeBuckBoost
	modeReserved
)

func (m OperatingMode) String() string {
	switch m {
	case ModeBoost:
		return "boost"
	case ModeBuck:
		return "buck"
	case ModeBuckBoost:
		return "buck-boost"
	}
	return fmt.Sprintf("OperatingMode(%d)", uint8(m))
}
