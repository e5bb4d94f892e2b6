package protocol

// Wire constants of the IrToy sampling protocol. All higher layers should depend on this file.
const (
	// USB full-speed bulk packet size of the CDC data endpoints.
	PacketSize = 64

	// Handshake byte sent after every consumed packet when handshaking is on.
	// Historical value: the packet size less the two-byte command overhead.
	HandshakeAck = PacketSize - 2

	// Host-supplied end-of-stream marker and the end-of-burst marker in capture reports.
	Sentinel Tick = 0xFFFF

	// Largest duration a capture report can carry without being read as a marker.
	MaxTick Tick = Sentinel - 1

	// Duration substituted for the sentinel so the last interval ends cleanly.
	TerminatorTicks Tick = 20

	// Nominal length of one protocol tick in nanoseconds (21.333 µs).
	TickNanos = 21333
)

// Commands accepted while in sampling mode.
const (
	CmdReset            byte = 0x00
	CmdTransmit         byte = 0x03
	CmdSetupPWM         byte = 0x06
	CmdLEDMuteOn        byte = 0x10
	CmdLEDMuteOff       byte = 0x11
	CmdLEDOn            byte = 0x12
	CmdLEDOff           byte = 0x13
	CmdReturnTxCount    byte = 0x24
	CmdNotifyOnComplete byte = 0x25
	CmdHandshake        byte = 0x26
	CmdGetCount         byte = 0x27
	CmdVersion          byte = 'v'
	CmdVersionUpper     byte = 'V'
)

// Commands accepted by the mode dispatcher outside sampling mode.
const (
	CmdSampling      byte = 's'
	CmdSamplingUpper byte = 'S'
)

// Response bytes.
const (
	RespVersion  byte = 'V'
	RespSampling byte = 'S'
	RespCount    byte = 't'
	RespComplete byte = 'C'
	RespFailed   byte = 'F'
)

// Sampling mode protocol revision reported in the "S01" acknowledgement.
const (
	SamplingMajor byte = '0'
	SamplingMinor byte = '1'
)

// Defaults describing this firmware.
const (
	DefaultHardwareVersion = '2'
	DefaultFirmwareMajor   = '2'
	DefaultFirmwareMinor   = '5'
	DefaultCarrierHz       = 38000

	// Setup-PWM derives the carrier from a 3 MHz PWM time base: f = 3 MHz / (PR2 + 1).
	PWMTimebaseHz = 3000000

	// USB identity shared with the IrToy so existing host drivers bind to it.
	USBVendorID  = 0x04D8
	USBProductID = 0xF58B
)
