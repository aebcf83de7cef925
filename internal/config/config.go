// internal/config/config.go
package config

type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

type SupervisorConfig struct {
	Converters   []ConverterConfig  `yaml:"converters"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
}

// ---- CONVERTER ----

type ConverterConfig struct {
	ID      string    `yaml:"id"`
	Bus     BusConfig `yaml:"bus"`
	Address uint16    `yaml:"address"` // 0 => 0x74

	// EN line: a GPIO name for local buses, a gateway coil for modbus.
	// Neither set means EN is hard-wired high.
	EnablePin  string  `yaml:"enable_pin"`
	EnableCoil *uint16 `yaml:"enable_coil"`

	OutputVoltage        float64  `yaml:"output_voltage"` // 0 => 0.8 V
	CurrentLimit         *float64 `yaml:"current_limit"`  // nil => maximum
	Feedback             string   `yaml:"feedback"`       // internal | external
	ExternalDividerRatio float64  `yaml:"external_divider_ratio"`
	StepSizeMv           float64  `yaml:"step_size_mv"` // 0 => 10
	SlewRate             *uint8   `yaml:"slew_rate"`    // nil => 1 (2.5 mV/us)
	OCPDelay             uint8    `yaml:"ocp_delay"`
	CableCompensation    float64  `yaml:"cable_compensation"`
	LightLoad            string   `yaml:"light_load"` // pfm | fpwm
	SenseResistorOhms    float64  `yaml:"sense_resistor_ohms"`

	// Status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`

	Monitor MonitorConfig `yaml:"monitor"`
}

// ---- BUS ----

// BusConfig selects the transport. Converters with identical bus configs
// share one handle.
type BusConfig struct {
	Kind string `yaml:"kind"` // periph | i2cdev | modbus | sim

	// periph: bus name ("" = first bus); i2cdev: device path
	Name string `yaml:"name"`

	// modbus gateway
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"` // 0 => I2C address is the unit id
	TimeoutMs    int    `yaml:"timeout_ms"`
	BaudRate     int    `yaml:"baud_rate"`
	RegisterBase uint16 `yaml:"register_base"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	IntervalMs int  `yaml:"interval_ms"`
	Verbose    bool `yaml:"verbose"`
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}
