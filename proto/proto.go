package proto

// Driver numbers.
const (
	// DriverRadio is the IEEE 802.15.4 radio bring-up driver.
	DriverRadio uint32 = 0x30001
	// DriverSerialization is the nRF51822 serialization bridge.
	DriverSerialization uint32 = 0x80004
)
