// Package sampler implements the IrToy sampling mode: the command parser,
// the transmit stream with its flow control, and the forwarding of captured
// pulse/space pairs to the host.
package sampler

import (
	"github.com/irdroid/irtoy/capture"
	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/telemetry"
	"github.com/irdroid/irtoy/transmit"
	"github.com/irdroid/irtoy/transport"
)

// State is the transmit session state. It is owned by the main loop.
type State uint8

const (
	StateIdle State = iota
	StateTransmitting
	StateFlushingLastPacket
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransmitting:
		return "transmitting"
	case StateFlushingLastPacket:
		return "flushing"
	}
	return "unknown"
}

// Flags are the per-session options set by host commands.
type Flags struct {
	Handshake        bool
	ReportCount      bool
	NotifyOnComplete bool
	LEDMuted         bool
}

// Session is the sampling mode protocol state machine.
type Session struct {
	port    transport.Port
	led     hal.Output
	carrier carrier.Generator
	tx      *transmit.Engine
	rx      *capture.Engine
	log     telemetry.Sink

	version   proto.Version
	carrierHz uint32

	state   State
	flags   Flags
	txCount uint16

	buf    []byte
	pos, n int
	hi     byte
	haveHi bool
	acked  bool

	pairBuf [proto.PairSize]byte

	pending byte // command waiting for parameters, 0 if none
	params  [2]byte
	nparams int
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(s telemetry.Sink) Option {
	return func(ss *Session) { ss.log = telemetry.Or(s) }
}

func WithVersion(v proto.Version) Option {
	return func(s *Session) { s.version = v }
}

// WithCarrier sets the carrier frequency selected on entering sampling mode.
func WithCarrier(hz uint32) Option {
	return func(s *Session) { s.carrierHz = hz }
}

func New(port transport.Port, led hal.Output, gen carrier.Generator, tx *transmit.Engine, rx *capture.Engine, opts ...Option) *Session {
	s := &Session{
		port:      port,
		led:       led,
		carrier:   gen,
		tx:        tx,
		rx:        rx,
		log:       telemetry.Discard,
		version:   proto.DefaultVersion,
		carrierHz: proto.DefaultCarrierHz,
		buf:       make([]byte, port.PacketSize()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the transmit session state.
func (s *Session) State() State { return s.state }

// Flags returns the current session options.
func (s *Session) Flags() Flags { return s.flags }

// TxCount returns the payload bytes received in the current or last transmit.
func (s *Session) TxCount() uint16 { return s.txCount }

// EnterSamplingMode resets the session, acknowledges with "S01", configures
// the carrier and arms capture.
func (s *Session) EnterSamplingMode() {
	s.Reset()
	s.write(proto.SamplingAck[:]...)
	if err := s.carrier.Configure(s.carrierHz); err != nil {
		s.log.Printf("[Sampler] carrier %d Hz: %v\r\n", s.carrierHz, err)
	}
	s.rx.Start()
	s.log.Printf("[Sampler] sampling mode, carrier %d Hz\r\n", s.carrier.Frequency())
}

// Reset cancels whatever is in progress. Interrupt sources are disarmed
// before any shared state is cleared. Calling it twice is the same as once.
func (s *Session) Reset() {
	s.rx.Stop()
	s.tx.Abort()
	s.led.Low()
	s.state = StateIdle
	s.flags = Flags{}
	s.txCount = 0
	s.pos, s.n = 0, 0
	s.haveHi = false
	s.acked = false
	s.pending, s.nparams = 0, 0
}

// ServiceTick runs one main loop step and reports whether the host asked to
// leave sampling mode.
func (s *Session) ServiceTick() (exit bool) {
	switch s.state {
	case StateTransmitting:
		s.stream()
		return false
	case StateFlushingLastPacket:
		if s.tx.Done() {
			s.complete()
		}
		return false
	}

	s.forward()
	if s.pos == s.n {
		if s.port.Available() == 0 {
			return false
		}
		s.fill()
	}
	return s.command(s.next())
}

func (s *Session) fill() {
	s.port.WaitOutReady()
	s.n = s.port.ReadAvailable(s.buf)
	s.pos = 0
}

func (s *Session) next() byte {
	b := s.buf[s.pos]
	s.pos++
	return b
}

func (s *Session) write(b ...byte) {
	s.port.WaitInReady()
	transport.Write(s.port, b...)
	s.port.Flush()
}

func (s *Session) command(b byte) (exit bool) {
	if s.pending != 0 {
		s.params[s.nparams] = b
		s.nparams++
		if s.nparams == len(s.params) {
			s.setupPWM()
			s.pending, s.nparams = 0, 0
		}
		return false
	}

	switch b {
	case proto.CmdReset:
		s.log.Printf("[Sampler] reset\r\n")
		s.Reset()
		return true
	case proto.CmdTransmit:
		s.beginTransmit()
	case proto.CmdSetupPWM:
		s.pending = b
	case proto.CmdLEDMuteOn:
		s.flags.LEDMuted = true
	case proto.CmdLEDMuteOff:
		s.flags.LEDMuted = false
	case proto.CmdLEDOn:
		s.led.High()
	case proto.CmdLEDOff:
		s.led.Low()
	case proto.CmdReturnTxCount:
		s.flags.ReportCount = true
	case proto.CmdNotifyOnComplete:
		s.flags.NotifyOnComplete = true
	case proto.CmdHandshake:
		s.flags.Handshake = true
	case proto.CmdGetCount:
		s.sendCount()
	case proto.CmdVersion, proto.CmdVersionUpper:
		r := s.version.Reply()
		s.write(r[:]...)
	}
	return false
}

// setupPWM applies a carrier period in 3 MHz units. Duty stays at 50 %.
func (s *Session) setupPWM() {
	hz := proto.SetupPWMFrequency(s.params[0])
	if err := s.carrier.Configure(hz); err != nil {
		s.log.Printf("[Sampler] setup pwm %d Hz: %v\r\n", hz, err)
		return
	}
	s.log.Printf("[Sampler] carrier %d Hz\r\n", s.carrier.Frequency())
}

// forward sends captured pairs and honours the flush timer.
func (s *Session) forward() {
	for {
		p, ok := s.rx.Next()
		if !ok {
			break
		}
		s.port.WaitInReady()
		transport.Write(s.port, proto.AppendPair(s.pairBuf[:0], p)...)
	}
	if !s.rx.FlushDue() {
		return
	}
	if dropped := s.rx.TakeOverflow(); dropped > 0 {
		s.log.Printf("[Sampler] capture overflow, %d pairs dropped\r\n", dropped)
		hi, lo := proto.Sentinel.Bytes()
		transport.Write(s.port, hi, lo, hi, lo)
	}
	s.port.WaitInReady()
	s.port.Flush()
}

func (s *Session) beginTransmit() {
	s.port.Flush()
	s.rx.Pause()
	s.tx.Abort()
	s.txCount = 0
	s.haveHi = false
	s.acked = false
	if !s.flags.LEDMuted {
		s.led.High()
	}
	s.state = StateTransmitting
	s.log.Printf("[Sampler] transmit start\r\n")
	// The packet holding the transmit command counts as consumed.
	s.ack()
}

// ack sends the handshake byte once per consumed packet.
func (s *Session) ack() {
	if s.flags.Handshake && !s.acked {
		s.write(byte(s.port.PacketSize() - 2))
	}
	s.acked = true
}

// stream feeds payload to the transmit engine until the sentinel arrives,
// the engine runs dry, or no more data is available for now.
func (s *Session) stream() {
	for {
		if s.pos == s.n {
			s.ack()
			if s.port.Available() == 0 {
				if s.tx.Done() {
					s.log.Printf("[Sampler] underrun waiting for host\r\n")
					s.endStream()
				}
				return
			}
			s.fill()
			s.acked = false
		}

		b := s.next()
		s.txCount++
		if !s.haveHi {
			s.hi, s.haveHi = b, true
			continue
		}
		s.haveHi = false

		t := proto.TickFromBytes(s.hi, b)
		if t == proto.Sentinel {
			if err := s.tx.LoadLast(); err != nil {
				s.log.Printf("[Sampler] %v\r\n", err)
			}
			s.endStream()
			return
		}
		if err := s.tx.Load(t); err != nil {
			s.log.Printf("[Sampler] %v after %d bytes\r\n", err, s.txCount)
			s.endStream()
			return
		}
	}
}

// endStream discards the rest of the current packet, reports the byte count
// and waits for the engine to finish.
func (s *Session) endStream() {
	s.pos = s.n
	s.haveHi = false
	if s.flags.ReportCount {
		s.sendCount()
	}
	s.state = StateFlushingLastPacket
}

func (s *Session) complete() {
	underrun := s.tx.Underrun()
	s.tx.Abort()
	if !s.flags.LEDMuted {
		s.led.Low()
	}
	if s.flags.NotifyOnComplete {
		s.write(proto.CompletionByte(underrun))
	}
	s.state = StateIdle
	s.rx.Resume()
	s.log.Printf("[Sampler] transmit done, %d bytes, underrun %v\r\n", s.txCount, underrun)
}

func (s *Session) sendCount() {
	r := proto.CountReply(s.txCount)
	s.write(r[:]...)
}
