package protocol

import "encoding/binary"

// Pair is one captured pulse (carrier present) and the space that followed it.
type Pair struct {
	Pulse Tick
	Space Tick
}

// PairSize is the wire size of a capture report.
const PairSize = 4

// EndOfBurst reports whether the pair closes a burst (space timed out).
func (p Pair) EndOfBurst() bool {
	return p.Space == Sentinel
}

// AppendPair appends the 4-byte big-endian capture report for p.
func AppendPair(b []byte, p Pair) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(p.Pulse))
	return binary.BigEndian.AppendUint16(b, uint16(p.Space))
}

// ParsePair decodes a capture report. b must hold at least PairSize bytes.
func ParsePair(b []byte) Pair {
	return Pair{
		Pulse: Tick(binary.BigEndian.Uint16(b[0:2])),
		Space: Tick(binary.BigEndian.Uint16(b[2:4])),
	}
}

// Version identifies the hardware and firmware revision.
type Version struct {
	Hardware byte
	Major    byte
	Minor    byte
}

// DefaultVersion describes this firmware.
var DefaultVersion = Version{
	Hardware: DefaultHardwareVersion,
	Major:    DefaultFirmwareMajor,
	Minor:    DefaultFirmwareMinor,
}

// Reply returns the 4-byte version response.
func (v Version) Reply() [4]byte {
	return [4]byte{RespVersion, v.Hardware, v.Major, v.Minor}
}

// String renders the version as the host sees it, e.g. "V225".
func (v Version) String() string {
	r := v.Reply()
	return string(r[:])
}

// ParseVersion decodes a 4-byte version reply.
func ParseVersion(b []byte) (Version, error) {
	if len(b) != 4 || b[0] != RespVersion {
		return Version{}, ErrBadResponse
	}
	return Version{Hardware: b[1], Major: b[2], Minor: b[3]}, nil
}

// SamplingAck is sent on entering sampling mode.
var SamplingAck = [3]byte{RespSampling, SamplingMajor, SamplingMinor}

// CountReply returns the 't' report for a transmitted byte count.
func CountReply(n uint16) [3]byte {
	return [3]byte{RespCount, byte(n >> 8), byte(n)}
}

// CompletionByte returns 'C' for a clean transmit and 'F' after an underrun.
func CompletionByte(underrun bool) byte {
	if underrun {
		return RespFailed
	}
	return RespComplete
}

// SetupPWMFrequency returns the carrier frequency selected by a setup-pwm period byte.
func SetupPWMFrequency(pr2 byte) uint32 {
	return PWMTimebaseHz / (uint32(pr2) + 1)
}
