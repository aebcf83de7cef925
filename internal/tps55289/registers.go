// internal/tps55289/registers.go
package tps55289

// Register map. Fixed by the device; MUST NOT be configurable.
const (
	RegRefLSB    uint8 = 0x00 // reference voltage, bits 0-7
	RegRefMSB    uint8 = 0x01 // reference voltage, bits 8-10 in bits 0-2
	RegIoutLimit uint8 = 0x02
	RegVoutSR    uint8 = 0x03
	RegVoutFS    uint8 = 0x04
	RegCDC       uint8 = 0x05
	RegMode      uint8 = 0x06
	RegStatus    uint8 = 0x07 // read-only

	numRegisters = 8
)

// DefaultAddress is the 7-bit bus address with the I2CADD strap low.
const DefaultAddress uint16 = 0x74

// resetValues is the datasheet power-on register table. It only seeds the
// shadow until Sync reads the real device.
var resetValues = [numRegisters]byte{
	RegRefLSB:    0x00,
	RegRefMSB:    0x00,
	RegIoutLimit: 0xE4,
	RegVoutSR:    0x01,
	RegVoutFS:    0x03,
	RegCDC:       0xE0,
	RegMode:      0x20,
	RegStatus:    0x00,
}

// field is a contiguous run of bits inside one register.
type field struct {
	reg   uint8
	shift uint8
	width uint8
}

func (f field) mask() byte {
	return byte((1<<f.width)-1) << f.shift
}

func (f field) max() uint8 {
	return uint8(1<<f.width) - 1
}

// get extracts the field value from a register byte.
func (f field) get(b byte) uint8 {
	return (b & f.mask()) >> f.shift
}

// set returns b with the field replaced by v. Bits outside the field are kept.
func (f field) set(b byte, v uint8) byte {
	return (b &^ f.mask()) | ((v << f.shift) & f.mask())
}

func flag(reg, bit uint8) field {
	return field{reg: reg, shift: bit, width: 1}
}

// Field layout per register.
var (
	fieldRefMSB = field{reg: RegRefMSB, shift: 0, width: 3}

	fieldCurrentLimitEnable = flag(RegIoutLimit, 7)
	fieldCurrentLimit       = field{reg: RegIoutLimit, shift: 0, width: 7}

	fieldOCPDelay = field{reg: RegVoutSR, shift: 4, width: 2}
	fieldSlewRate = field{reg: RegVoutSR, shift: 0, width: 2}

	fieldFeedback = flag(RegVoutFS, 7)
	fieldIntFB    = field{reg: RegVoutFS, shift: 0, width: 2}

	fieldSCMask     = flag(RegCDC, 7)
	fieldOCPMask    = flag(RegCDC, 6)
	fieldOVPMask    = flag(RegCDC, 5)
	fieldCDCOption  = flag(RegCDC, 3)
	fieldCDCSetting = field{reg: RegCDC, shift: 0, width: 3}

	fieldOutputEnable = flag(RegMode, 7)
	fieldFSWDouble    = flag(RegMode, 6)
	fieldHiccup       = flag(RegMode, 5)
	fieldDischarge    = flag(RegMode, 4)
	fieldFPWM         = flag(RegMode, 1)

	fieldStatusSCP  = flag(RegStatus, 7)
	fieldStatusOCP  = flag(RegStatus, 6)
	fieldStatusOVP  = flag(RegStatus, 5)
	fieldStatusMode = field{reg: RegStatus, shift: 0, width: 2}
)

func boolBit(on bool) uint8 {
	if on {
		return 1
	}
	return 0
}
