package gen2

import "fmt"

// ReaderDelim is the fixed delimiter duration preceding every reader frame.
const ReaderDelim = 12.5e-6

// ReaderSync describes the reader's Tari/RTcal pulse-interval encoding,
// used to encode QueryRep, Ack, ReqRN, and Read (everything but Query,
// which additionally needs TRcal and therefore uses ReaderPreamble).
type ReaderSync struct {
	Tari  float64
	RTcal float64
	Delim float64
}

// NewReaderSync builds a reader sync with the standard 12.5us delimiter.
func NewReaderSync(tari, rtcal float64) ReaderSync {
	return ReaderSync{Tari: tari, RTcal: rtcal, Delim: ReaderDelim}
}

// Data0 is the duration of a reader data-0 symbol.
func (s ReaderSync) Data0() float64 { return s.Tari }

// Data1 is the duration of a reader data-1 symbol.
func (s ReaderSync) Data1() float64 { return s.RTcal - s.Tari }

// Duration is the on-air duration of the sync waveform alone.
func (s ReaderSync) Duration() float64 { return s.Delim + s.Tari + s.RTcal }

// ReaderPreamble extends ReaderSync with TRcal, used only ahead of Query.
type ReaderPreamble struct {
	ReaderSync
	TRcal float64
}

// NewReaderPreamble builds a reader preamble with the standard delimiter.
func NewReaderPreamble(tari, rtcal, trcal float64) ReaderPreamble {
	return ReaderPreamble{ReaderSync: NewReaderSync(tari, rtcal), TRcal: trcal}
}

// Duration overrides ReaderSync's duration to add the TRcal segment.
func (p ReaderPreamble) Duration() float64 {
	return p.Delim + p.Tari + p.RTcal + p.TRcal
}

// preambleLike is implemented by ReaderSync and ReaderPreamble: both carry
// data0/data1 symbol durations and an overall waveform duration.
type preambleLike interface {
	Data0() float64
	Data1() float64
	Duration() float64
}

// Command is the closed sum type of reader command frames: Query,
// QueryRep, Ack, ReqRN, Read. Dispatch over it is always an exhaustive
// type switch, never open inheritance.
type Command interface {
	Name() string
	encodedBody() string
	isCommand()
}

// Query initiates an inventory round.
type Query struct {
	Q       int
	M       TagEncoding
	DR      DR
	TRext   bool
	Sel     Sel
	Session Session
	Target  InventoryFlag
	CRC5    uint8
}

func (Query) isCommand()    {}
func (Query) Name() string  { return "Query" }
func (q Query) encodedBody() string {
	return q.DR.encode() + q.M.encode() + encodeBool(q.TRext) + q.Sel.encode() +
		q.Session.encode() + q.Target.encode() + encodeUint(uint64(q.Q), 4) +
		encodeUint(uint64(q.CRC5), 5)
}

// QueryRep advances the slot counter within the current round.
type QueryRep struct {
	Session Session
}

func (QueryRep) isCommand()   {}
func (QueryRep) Name() string { return "QueryRep" }
func (q QueryRep) encodedBody() string {
	return q.Session.encode()
}

// Ack acknowledges a tag's RN16 and requests its EPC.
type Ack struct {
	RN uint16
}

func (Ack) isCommand()   {}
func (Ack) Name() string { return "Ack" }
func (a Ack) encodedBody() string {
	return encodeUint(uint64(a.RN), 16)
}

// ReqRN requests a handle from an acknowledged tag.
type ReqRN struct {
	RN    uint16
	CRC16 uint16
}

func (ReqRN) isCommand()   {}
func (ReqRN) Name() string { return "ReqRN" }
func (r ReqRN) encodedBody() string {
	return encodeUint(uint64(r.RN), 16) + encodeUint(uint64(r.CRC16), 16)
}

// Read requests a memory bank read from an acknowledged tag.
type Read struct {
	Bank    Bank
	WordPtr int
	WordCnt int
	RN      uint16
	CRC16   uint16
}

func (Read) isCommand()   {}
func (Read) Name() string { return "Read" }
func (r Read) encodedBody() string {
	return r.Bank.encode() + encodeEBV(uint64(r.WordPtr)) +
		encodeUint(uint64(r.WordCnt), 8) + encodeUint(uint64(r.RN), 16) +
		encodeUint(uint64(r.CRC16), 16)
}

// commandPrefix is the fixed bit prefix preceding a command's encoded body.
func commandPrefix(c Command) string {
	switch c.(type) {
	case Query:
		return "1000"
	case QueryRep:
		return "00"
	case Ack:
		return "01"
	case ReqRN:
		return "11000001"
	case Read:
		return "11000010"
	default:
		panic(fmt.Sprintf("gen2: unsupported command %T", c))
	}
}

// Encode returns the full on-air bit string for a command: prefix + body.
func Encode(c Command) string {
	return commandPrefix(c) + c.encodedBody()
}

// ReaderFrame pairs a preamble/sync waveform with an encoded command and
// derives the resulting on-air duration.
type ReaderFrame struct {
	Preamble preambleLike
	Command  Command
	duration float64
}

// NewReaderFrame builds a ReaderFrame and computes its duration from the
// command's bit composition: duration = preamble + n0*data0 + n1*data1.
func NewReaderFrame(preamble preambleLike, command Command) ReaderFrame {
	encoded := Encode(command)
	zeros, ones := countBits(encoded)
	d := preamble.Duration() + float64(zeros)*preamble.Data0() + float64(ones)*preamble.Data1()
	return ReaderFrame{Preamble: preamble, Command: command, duration: d}
}

// Duration is the on-air duration of the full reader frame.
func (f ReaderFrame) Duration() float64 { return f.duration }

func (f ReaderFrame) String() string {
	return fmt.Sprintf("Frame{%s}", f.Command.Name())
}
