// internal/tps55289/codec.go
package tps55289

import "math"

// Output voltage window of the device.
const (
	MinOutputVoltage = 0.8
	MaxOutputVoltage = 22.0
)

// Reference DAC transfer function: VREF = 45 mV + (code-1) / 1.7715 mV.
const (
	MaxReferenceCode     = 2047
	refOffsetMillivolts  = 45.0
	refCodesPerMillivolt = 1.7715
)

// Current limit: one code is 0.5 mV across the sense resistor.
const (
	DefaultSenseResistor = 0.010 // ohms
	MaxCurrentLimitCode  = 127
	currentLimitLSB      = 0.0005 // volts per code

	// slack for values that are on the grid but not exactly representable
	gridEpsilon = 1e-9
)

// Cable compensation: 0.1 V per code, 0.0-0.7 V.
const (
	MaxCableCompensation  = 0.7
	cableCompensationStep = 0.1
)

// ReferenceCode converts an output voltage into the 11-bit reference DAC code
// for the given feedback ratio (VREF / VOUT). The result is clamped to
// [0, MaxReferenceCode].
func ReferenceCode(volts, ratio float64) uint16 {
	vref := volts * ratio
	code := math.Ceil(refCodesPerMillivolt*(vref*1000-refOffsetMillivolts)) + 1

	switch {
	case math.IsNaN(code), code < 0:
		return 0
	case code > MaxReferenceCode:
		return MaxReferenceCode
	}
	return uint16(code)
}

// ReferenceVoltage is the output voltage the device regulates to for code at
// the given feedback ratio.
func ReferenceVoltage(code uint16, ratio float64) float64 {
	if code > MaxReferenceCode {
		code = MaxReferenceCode
	}
	mv := refOffsetMillivolts
	if code > 0 {
		mv += float64(code-1) / refCodesPerMillivolt
	}
	return mv / 1000 / ratio
}

// ReferenceStep is the output voltage change of one reference code.
func ReferenceStep(ratio float64) float64 {
	return 1 / refCodesPerMillivolt / 1000 / ratio
}

// MaxReachableVoltage is the highest output the reference DAC can produce at
// ratio. Requests above it clamp to MaxReferenceCode.
func MaxReachableVoltage(ratio float64) float64 {
	return ReferenceVoltage(MaxReferenceCode, ratio)
}

// CurrentLimitCode rounds amps to the nearest 7-bit limit code.
func CurrentLimitCode(amps, senseOhms float64) uint8 {
	code := math.Round(amps * senseOhms / currentLimitLSB)
	switch {
	case math.IsNaN(code), code < 0:
		return 0
	case code > MaxCurrentLimitCode:
		return MaxCurrentLimitCode
	}
	return uint8(code)
}

// CurrentLimitAmps is the limit the device applies for code.
func CurrentLimitAmps(code uint8, senseOhms float64) float64 {
	return float64(code&MaxCurrentLimitCode) * currentLimitLSB / senseOhms
}

// MaxCurrentLimit is the largest programmable limit for a sense resistor.
func MaxCurrentLimit(senseOhms float64) float64 {
	return CurrentLimitAmps(MaxCurrentLimitCode, senseOhms)
}

// CableCompensationCode maps a compensation voltage on the 0.1 V grid to its
// 3-bit code. ok is false for off-grid or out of range values.
func CableCompensationCode(volts float64) (code uint8, ok bool) {
	if math.IsNaN(volts) || volts < -gridEpsilon || volts > MaxCableCompensation+gridEpsilon {
		return 0, false
	}
	steps := volts / cableCompensationStep
	r := math.Round(steps)
	if math.Abs(steps-r) > 1e-6 {
		return 0, false
	}
	return uint8(r), true
}

// CableCompensationVolts is the compensation applied for code.
func CableCompensationVolts(code uint8) float64 {
	return float64(code&fieldCDCSetting.max()) * cableCompensationStep
}
