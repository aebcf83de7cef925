// internal/status/constants.go
package status

// Converter Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per converter.
const SlotsPerDevice = 20

// MaxSlot is the highest status_slot whose block fits the holding register
// address space.
const MaxSlot = 65536/SlotsPerDevice - 1

// ---- SLOT INDICES ----

// SlotHealthCode holds the converter health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last driver error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the converter has not been healthy.
const SlotSecondsInError = 2

// SlotStatusRegister holds the last STATUS register value.
const SlotStatusRegister = 3

// SlotOperatingMode holds the operating mode: 0 boost, 1 buck, 2 buck-boost.
const SlotOperatingMode = 4

// SlotOutputEnabled is 1 while the output is enabled.
const SlotOutputEnabled = 5

// SlotVoltageMillivolts holds the effective output voltage setpoint in mV.
const SlotVoltageMillivolts = 6

// SlotCurrentLimitMilliamps holds the effective current limit in mA, 0 when disabled.
const SlotCurrentLimitMilliamps = 7

// ---- RESERVED RANGE ----

// Slots 8-11 are reserved for future use.
const SlotReservedStart = 8
const SlotReservedEnd = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a converter that is readable, fault free and enabled.
const HealthOK uint16 = 1

// HealthError represents a converter that cannot be read.
const HealthError uint16 = 2

// HealthStale represents a converter without a recent status poll.
const HealthStale uint16 = 3

// HealthDisabled represents a readable converter with its output off.
const HealthDisabled uint16 = 4

// HealthFault represents a tripped protection (short circuit, overcurrent, overvoltage).
const HealthFault uint16 = 5
