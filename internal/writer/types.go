// internal/writer/types.go
package writer

// StatusPlan locates one converter status block in status memory.
type StatusPlan struct {
	ConverterID string
	Endpoint    string
	UnitID      uint8
	BaseSlot    uint16
	DeviceName  string
}
